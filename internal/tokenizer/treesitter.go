package tokenizer

import (
	"context"
	"errors"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/standardbeagle/magentointel/internal/debug"
	mierrors "github.com/standardbeagle/magentointel/internal/errors"
	"github.com/standardbeagle/magentointel/internal/types"
)

// TreeSitterTokenizer tokenizes in process with the tree-sitter PHP grammar.
// Token kinds come from the grammar's node kinds. Text between parse tree
// leaves becomes Whitespace or Other tokens so the stream covers the input.
type TreeSitterTokenizer struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
}

// NewTreeSitterTokenizer creates a tokenizer with its own parser. Call Close
// to release it.
func NewTreeSitterTokenizer() (*TreeSitterTokenizer, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, mierrors.New(mierrors.ErrorTypeExternalToolUnavailable, "tree-sitter", "php", err)
	}
	return &TreeSitterTokenizer{parser: parser}, nil
}

// Close releases the parser
func (t *TreeSitterTokenizer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.parser != nil {
		t.parser.Close()
		t.parser = nil
	}
}

// Tokenize implements Tokenizer
func (t *TreeSitterTokenizer) Tokenize(ctx context.Context, src string) ([]types.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := []byte(src)

	t.mu.Lock()
	if t.parser == nil {
		t.mu.Unlock()
		return nil, mierrors.New(mierrors.ErrorTypeExternalToolUnavailable, "tree-sitter", "php", errors.New("tokenizer closed"))
	}
	tree := t.parser.Parse(content, nil)
	t.mu.Unlock()
	if tree == nil {
		return nil, mierrors.New(mierrors.ErrorTypeExternalToolUnavailable, "tree-sitter", "php", errors.New("parse returned no tree"))
	}
	defer tree.Close()

	w := &leafWalker{src: src}
	w.walk(tree.RootNode())
	w.gap(len(src))

	debug.LogTokenizer("tree-sitter tokenized %d bytes into %d tokens\n", len(src), len(w.tokens))
	return w.tokens, nil
}

// atomicNodes are emitted as one token without descending into children
var atomicNodes = map[string]bool{
	"variable_name":   true,
	"string":          true,
	"encapsed_string": true,
	"heredoc":         true,
	"nowdoc":          true,
	"comment":         true,
	"php_tag":         true,
	"text":            true,
}

type leafWalker struct {
	src    string
	pos    int
	tokens []types.Token
}

func (w *leafWalker) walk(node *tree_sitter.Node) {
	if node == nil {
		return
	}
	start, end := int(node.StartByte()), int(node.EndByte())
	if node.IsMissing() || start == end {
		return
	}
	kind := node.Kind()
	if node.ChildCount() == 0 || atomicNodes[kind] || strings.HasSuffix(kind, "_modifier") {
		w.emit(node, kind, start, end)
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

func (w *leafWalker) emit(node *tree_sitter.Node, nodeKind string, start, end int) {
	if start < w.pos {
		// Overlapping leaves occur only inside error recovery; keep the stream monotonic
		start = w.pos
		if start >= end {
			return
		}
	}
	w.gap(start)
	text := w.src[start:end]
	kind := leafKind(nodeKind, text, node.IsNamed())

	// Error recovery can split a variable into "$" and its name
	if kind == types.KindIdentifier && len(w.tokens) > 0 {
		last := &w.tokens[len(w.tokens)-1]
		if last.Text == "$" && last.Span.End == start {
			last.Kind = types.KindVariable
			last.Text = w.src[last.Span.Start:end]
			last.Span.End = end
			w.pos = end
			return
		}
	}

	w.tokens = append(w.tokens, types.Token{Kind: kind, Text: text, Span: types.Span{Start: start, End: end}})
	w.pos = end
}

// gap emits the source text between the last token and offset
func (w *leafWalker) gap(offset int) {
	if offset <= w.pos {
		return
	}
	text := w.src[w.pos:offset]
	kind := types.KindOther
	if strings.TrimSpace(text) == "" {
		kind = types.KindWhitespace
	}
	w.tokens = append(w.tokens, types.Token{Kind: kind, Text: text, Span: types.Span{Start: w.pos, End: offset}})
	w.pos = offset
}

func leafKind(nodeKind, text string, named bool) types.TokenKind {
	switch nodeKind {
	case "variable_name":
		return types.KindVariable
	case "name":
		return types.KindIdentifier
	case "->", "?->":
		return types.KindObjectOperator
	case "::":
		return types.KindDoubleColon
	case "string", "encapsed_string":
		return types.KindStringLiteral
	case "comment":
		if strings.HasPrefix(text, "/**") {
			return types.KindDocComment
		}
		return types.KindOther
	case "(", ")", "{", "}", ";":
		return classifyPunct(nodeKind)
	}

	if named && !strings.HasSuffix(nodeKind, "_modifier") {
		return types.KindOther
	}
	switch strings.ToLower(text) {
	case "class":
		return types.KindClass
	case "extends":
		return types.KindExtends
	case "static":
		return types.KindStatic
	case "public":
		return types.KindPublic
	case "private":
		return types.KindPrivate
	case "protected":
		return types.KindProtected
	case "function":
		return types.KindFunction
	case "const":
		return types.KindConst
	case "self", "parent":
		return types.KindIdentifier
	}
	return types.KindOther
}
