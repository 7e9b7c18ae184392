// Package engine wires the completion pipeline together:
// tokenize the buffer prefix, isolate the statement at the cursor, resolve
// its class, find the class file, extract its members and assemble entries.
package engine

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/standardbeagle/magentointel/internal/buffer"
	"github.com/standardbeagle/magentointel/internal/completion"
	"github.com/standardbeagle/magentointel/internal/debug"
	mierrors "github.com/standardbeagle/magentointel/internal/errors"
	"github.com/standardbeagle/magentointel/internal/magento"
	"github.com/standardbeagle/magentointel/internal/members"
	"github.com/standardbeagle/magentointel/internal/resolver"
	"github.com/standardbeagle/magentointel/internal/scanner"
	"github.com/standardbeagle/magentointel/internal/tokenizer"
	"github.com/standardbeagle/magentointel/internal/types"
)

// Options configures an Engine. Tokenizer and Roots are required.
type Options struct {
	Tokenizer      tokenizer.Tokenizer
	Roots          magento.RootLocator
	Extractor      members.Extractor // defaults to members.RegexExtractor
	MaxResults     int               // 0 = unlimited
	FuzzyThreshold float64

	// CacheLookups keeps class paths and member sets between requests.
	// Only enable it when something calls Invalidate on file changes.
	CacheLookups bool
}

// Result is the detailed outcome of a completion request
type Result struct {
	Class   types.ResolvedClass     `json:"class"`
	Path    string                  `json:"path"`
	Entries []types.CompletionEntry `json:"entries"`
}

type memberKey struct {
	path   string
	access types.AccessContext
}

// Engine answers completion and class lookup requests. It is safe for
// concurrent use; each request builds its own resolver.
type Engine struct {
	tok            tokenizer.Tokenizer
	roots          magento.RootLocator
	extractor      members.Extractor
	maxResults     int
	fuzzyThreshold float64

	mu           sync.RWMutex
	cacheLookups bool
	paths        map[string]string
	members      map[memberKey]types.MemberSet

	closers []func() error
}

// New creates an engine
func New(opts Options) (*Engine, error) {
	if opts.Tokenizer == nil {
		return nil, errors.New("engine requires a tokenizer")
	}
	if opts.Roots == nil {
		return nil, errors.New("engine requires a root locator")
	}
	if opts.Extractor == nil {
		opts.Extractor = members.RegexExtractor{}
	}
	return &Engine{
		tok:            opts.Tokenizer,
		roots:          opts.Roots,
		extractor:      opts.Extractor,
		maxResults:     opts.MaxResults,
		fuzzyThreshold: opts.FuzzyThreshold,
		cacheLookups:   opts.CacheLookups,
		paths:          make(map[string]string),
		members:        make(map[memberKey]types.MemberSet),
	}, nil
}

// Close releases resources owned by the engine
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	if len(errs) > 0 {
		return mierrors.NewMultiError(errs)
	}
	return nil
}

// Tokenizer returns the tokenizer the engine uses
func (e *Engine) Tokenizer() tokenizer.Tokenizer {
	return e.tok
}

// Root returns the Magento root among the open roots
func (e *Engine) Root() (string, bool) {
	return magento.FindProjectRoot(e.roots)
}

// Complete returns the completion entries for the access expression ending
// at offset in src. Every non-fatal failure yields an empty list and a nil
// error; an unavailable tokenizer is also logged.
func (e *Engine) Complete(ctx context.Context, src string, offset int) ([]types.CompletionEntry, error) {
	res, err := e.CompleteDetailed(ctx, src, offset)
	if err != nil {
		return e.quiet(err)
	}
	return res.Entries, nil
}

// CompleteDetailed is Complete reporting why nothing was found as an
// *errors.EngineError
func (e *Engine) CompleteDetailed(ctx context.Context, src string, offset int) (Result, error) {
	res, err := e.complete(ctx, src, offset)
	if err != nil {
		return res, err
	}
	res.Entries = completion.Limit(res.Entries, e.maxResults)
	return res, nil
}

// CompleteAt completes with a partially typed member name: the word before
// offset must directly follow "->" or "::". Entries are ranked against the
// typed prefix.
func (e *Engine) CompleteAt(ctx context.Context, src string, offset int) ([]types.CompletionEntry, error) {
	offset = clampOffset(src, offset)
	start := WordAt(src, offset).Span.Start
	if !TriggerAt(src, start) {
		return []types.CompletionEntry{}, nil
	}

	res, err := e.complete(ctx, src, start)
	if err != nil {
		return e.quiet(err)
	}
	prefix := src[start:offset]
	entries := completion.RankByPrefix(res.Entries, prefix, e.fuzzyThreshold)
	return completion.Limit(entries, e.maxResults), nil
}

func (e *Engine) complete(ctx context.Context, src string, offset int) (Result, error) {
	root, ok := e.Root()
	if !ok {
		return Result{}, mierrors.New(mierrors.ErrorTypeNotInMagentoProject, "complete", "", nil)
	}
	offset = clampOffset(src, offset)

	tokens, err := e.tok.Tokenize(ctx, src[:offset])
	if err != nil {
		return Result{}, err
	}
	fragment := scanner.IsolateStatement(tokens, len(tokens))

	r := resolver.New(buffer.NewStringBuffer(src), e.bufferTokens(src))
	class, err := r.Resolve(ctx, fragment)
	if err != nil {
		return Result{}, err
	}

	path, ok := e.resolvePath(root, class.Name)
	if !ok {
		return Result{Class: class}, mierrors.New(mierrors.ErrorTypePathNotFound, "complete", class.Name, nil)
	}

	set, err := e.scanMembers(path, class.AccessContext)
	if err != nil {
		return Result{Class: class, Path: path}, mierrors.New(mierrors.ErrorTypeMalformedSource, "complete", path, err)
	}
	if len(set) == 0 {
		return Result{Class: class, Path: path}, mierrors.New(mierrors.ErrorTypeMalformedSource, "complete", path, errors.New("no members found"))
	}

	entries := completion.Assemble(class, set)
	debug.Log(debug.ComponentEngine, "%d entries for %s (%s) from %s\n", len(entries), class.Name, class.AccessContext, path)
	return Result{Class: class, Path: path, Entries: entries}, nil
}

// quiet converts a non-fatal pipeline error into an empty result
func (e *Engine) quiet(err error) ([]types.CompletionEntry, error) {
	var engineErr *mierrors.EngineError
	if !errors.As(err, &engineErr) || engineErr.IsFatal() {
		return nil, err
	}
	if engineErr.Type == mierrors.ErrorTypeExternalToolUnavailable {
		debug.Warn(debug.ComponentTokenizer, err, "php tokenizer unavailable")
	} else {
		debug.Log(debug.ComponentEngine, "no completions: %v\n", err)
	}
	return []types.CompletionEntry{}, nil
}

func (e *Engine) bufferTokens(src string) resolver.TokenSource {
	return func(ctx context.Context) ([]types.Token, error) {
		if bt, ok := e.tok.(tokenizer.BufferTokenizer); ok {
			return bt.TokenizeBuffer(ctx, src)
		}
		return e.tok.Tokenize(ctx, src)
	}
}

// OpenClass returns the file declaring className
func (e *Engine) OpenClass(className string) (string, error) {
	root, ok := e.Root()
	if !ok {
		return "", mierrors.New(mierrors.ErrorTypeNotInMagentoProject, "open", className, nil)
	}
	path, ok := e.resolvePath(root, className)
	if !ok {
		return "", mierrors.New(mierrors.ErrorTypePathNotFound, "open", className, nil)
	}
	return path, nil
}

// EnableLookupCache turns on caching of class paths and member sets. The
// caller becomes responsible for calling Invalidate when files change.
func (e *Engine) EnableLookupCache() {
	e.mu.Lock()
	e.cacheLookups = true
	e.mu.Unlock()
}

func (e *Engine) resolvePath(root, className string) (string, bool) {
	key := root + "\x00" + className
	e.mu.RLock()
	caching := e.cacheLookups
	path, ok := e.paths[key]
	e.mu.RUnlock()
	if caching && ok {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		e.mu.Lock()
		delete(e.paths, key)
		e.mu.Unlock()
	}

	path, ok = magento.NewPathResolver(root).ResolvePath(className)
	if !ok {
		return "", false
	}
	if caching {
		e.mu.Lock()
		e.paths[key] = path
		e.mu.Unlock()
	}
	return path, true
}

func (e *Engine) scanMembers(path string, access types.AccessContext) (types.MemberSet, error) {
	key := memberKey{path: path, access: access}
	e.mu.RLock()
	caching := e.cacheLookups
	set, ok := e.members[key]
	e.mu.RUnlock()
	if caching && ok {
		return set, nil
	}

	set, err := e.extractor.ScanMembers(path, access)
	if err != nil {
		return nil, err
	}
	if caching && len(set) > 0 {
		e.mu.Lock()
		e.members[key] = set
		e.mu.Unlock()
	}
	return set, nil
}

// Invalidate forgets cached members of path and every cached class path,
// since a new or removed file can change which layer wins
func (e *Engine) Invalidate(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.members {
		if key.path == path {
			delete(e.members, key)
		}
	}
	e.paths = make(map[string]string)
}

// InvalidateAll forgets every cached path and member set
func (e *Engine) InvalidateAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paths = make(map[string]string)
	e.members = make(map[memberKey]types.MemberSet)
}

func clampOffset(src string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(src) {
		return len(src)
	}
	return offset
}
