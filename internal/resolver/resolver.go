// Package resolver infers the class an access expression refers to.
//
// The resolver walks an isolated statement left to right. Every "->" or "::"
// at call depth zero converts the receiver before it into a class name using
// the current buffer: $this/self/parent declarations, @var doc hints,
// Magento factory aliases and @return hints of class members.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/standardbeagle/magentointel/internal/buffer"
	"github.com/standardbeagle/magentointel/internal/debug"
	mierrors "github.com/standardbeagle/magentointel/internal/errors"
	"github.com/standardbeagle/magentointel/internal/types"
)

var errNoAccessOperator = errors.New("no access operator in expression")

// TokenSource returns the token stream of the whole buffer
type TokenSource func(ctx context.Context) ([]types.Token, error)

// Event is the outcome of one access operator in an expression
type Event struct {
	Operator types.Token
	Receiver string // receiver text, or the synthesized Mage::factory('alias')
	Class    types.ResolvedClass
	Resolved bool
	// Repeated is set when the class equals the previous resolution; Class
	// then carries the earlier access context and no new scan is needed
	Repeated bool
}

// Resolver resolves expressions against one buffer. It memoizes the buffer's
// token stream and is not safe for concurrent use.
type Resolver struct {
	buf    buffer.SourceBuffer
	tokens TokenSource

	loaded       bool
	bufferTokens []types.Token
}

// New creates a resolver for buf. tokens may be nil, in which case return
// hint lookups never succeed.
func New(buf buffer.SourceBuffer, tokens TokenSource) *Resolver {
	return &Resolver{buf: buf, tokens: tokens}
}

func (r *Resolver) bufferTokensOnce(ctx context.Context) ([]types.Token, error) {
	if r.loaded {
		return r.bufferTokens, nil
	}
	if r.tokens == nil {
		r.loaded = true
		return nil, nil
	}
	tokens, err := r.tokens(ctx)
	if err != nil {
		return nil, err
	}
	r.bufferTokens, r.loaded = tokens, true
	return tokens, nil
}

// Walk resolves every access operator at call depth zero in fragment
func (r *Resolver) Walk(ctx context.Context, fragment types.ExpressionFragment) ([]Event, error) {
	var (
		events   []Event
		receiver string
		factory  string
		nest     int
		previous types.ResolvedClass
	)

	for _, tk := range fragment {
		switch tk.Kind {
		case types.KindVariable, types.KindIdentifier, types.KindStatic:
			if nest != 0 {
				continue
			}
			receiver = tk.Text
			factory = ""
			if factoryNames[tk.Text] {
				factory = tk.Text
			}
		case types.KindOpenParen:
			nest++
		case types.KindCloseParen:
			nest--
		case types.KindStringLiteral:
			if factory != "" {
				receiver = factoryToken(factory, tk.Text)
				factory = ""
			}
		case types.KindObjectOperator, types.KindDoubleColon:
			if nest != 0 {
				continue
			}
			ev, err := r.resolveOperator(ctx, tk, receiver)
			if err != nil {
				return events, err
			}
			if ev.Resolved {
				if !previous.IsZero() && previous.Name == ev.Class.Name {
					ev.Class = previous
					ev.Repeated = true
				} else {
					previous = ev.Class
				}
			}
			debug.LogResolver("%s %s -> %q resolved=%v repeated=%v\n", receiver, tk.Text, ev.Class.Name, ev.Resolved, ev.Repeated)
			events = append(events, ev)
		}
	}
	return events, nil
}

func (r *Resolver) resolveOperator(ctx context.Context, op types.Token, receiver string) (Event, error) {
	ev := Event{Operator: op, Receiver: receiver}
	if receiver == "" {
		return ev, nil
	}

	name, err := r.ConvertToken(ctx, receiver)
	if err != nil {
		return ev, err
	}
	// Class::member on an unknown name still names the class literally
	if name == "" && op.Kind == types.KindDoubleColon && !strings.HasPrefix(receiver, "$") {
		name = receiver
	}
	if name == "" {
		return ev, nil
	}

	ev.Class = types.ResolvedClass{Name: name, AccessContext: accessContext(op, receiver)}
	ev.Resolved = true
	return ev, nil
}

// accessContext picks the member visibility offered after op
func accessContext(op types.Token, receiver string) types.AccessContext {
	switch {
	case op.Kind == types.KindDoubleColon, receiver == "self", receiver == "parent", receiver == "static":
		return types.AccessStatic
	case strings.HasPrefix(receiver, "$this"):
		return types.AccessPrivate
	}
	return types.AccessPublic
}

// Resolve returns the class of the last access operator in fragment. An
// expression without an operator, or whose last operator cannot be
// resolved, yields an errors.ErrUnresolvedClass error; tokenizer failures
// are returned as they are.
func (r *Resolver) Resolve(ctx context.Context, fragment types.ExpressionFragment) (types.ResolvedClass, error) {
	events, err := r.Walk(ctx, fragment)
	if err != nil {
		return types.ResolvedClass{}, err
	}
	if len(events) == 0 {
		return types.ResolvedClass{}, mierrors.New(mierrors.ErrorTypeUnresolvedClass, "resolve", "", errNoAccessOperator)
	}
	last := events[len(events)-1]
	if !last.Resolved {
		return types.ResolvedClass{}, mierrors.New(mierrors.ErrorTypeUnresolvedClass, "resolve", last.Receiver, nil)
	}
	return last.Class, nil
}
