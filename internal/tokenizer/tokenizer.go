// Package tokenizer turns PHP source into classified tokens.
//
// Two backends exist. PHPTokenizer shells out to the php binary and uses
// token_get_all, with token names queried from the same binary through a
// NameTable. TreeSitterTokenizer walks a tree-sitter-php parse tree in
// process. Both produce the same types.Token stream shape: every byte of
// the input is covered by exactly one token, in order.
package tokenizer

import (
	"context"

	"github.com/standardbeagle/magentointel/internal/types"
)

// Tokenizer converts PHP source into an ordered token sequence. A truncated
// or invalid fragment is never an error; unclassifiable text becomes
// types.KindOther.
type Tokenizer interface {
	Tokenize(ctx context.Context, src string) ([]types.Token, error)
}

// BufferTokenizer is implemented by tokenizers that can memoize full-buffer
// tokenizations. Fragments must go through Tokenize.
type BufferTokenizer interface {
	Tokenizer
	TokenizeBuffer(ctx context.Context, src string) ([]types.Token, error)
}

// RawToken is one element of token_get_all output: either tagged with a
// numeric token code, or a bare single-character string.
type RawToken struct {
	Code   int
	Text   string
	Tagged bool
}

// Tagged builds a RawToken carrying a token code
func Tagged(code int, text string) RawToken {
	return RawToken{Code: code, Text: text, Tagged: true}
}

// Bare builds a RawToken for a bare punctuation string
func Bare(text string) RawToken {
	return RawToken{Text: text}
}

// Normalize returns the token's kind and text. Tagged tokens are classified
// by their name in names; bare tokens by their text.
func (r RawToken) Normalize(names *NameTable) (types.TokenKind, string) {
	if !r.Tagged {
		return Classify("", r.Text), r.Text
	}
	return Classify(names.Name(r.Code), r.Text), r.Text
}

// Classify maps a token_get_all token name (empty for bare tokens) to a kind
func Classify(name, text string) types.TokenKind {
	switch name {
	case "":
		return classifyPunct(text)
	case "T_STRING", "T_NAME_QUALIFIED", "T_NAME_FULLY_QUALIFIED", "T_NAME_RELATIVE":
		return types.KindIdentifier
	case "T_VARIABLE":
		return types.KindVariable
	case "T_OBJECT_OPERATOR", "T_NULLSAFE_OBJECT_OPERATOR":
		return types.KindObjectOperator
	case "T_DOUBLE_COLON", "T_PAAMAYIM_NEKUDOTAYIM":
		return types.KindDoubleColon
	case "T_CONSTANT_ENCAPSED_STRING":
		return types.KindStringLiteral
	case "T_DOC_COMMENT":
		return types.KindDocComment
	case "T_WHITESPACE":
		return types.KindWhitespace
	case "T_CLASS":
		return types.KindClass
	case "T_EXTENDS":
		return types.KindExtends
	case "T_STATIC":
		return types.KindStatic
	case "T_PUBLIC":
		return types.KindPublic
	case "T_PRIVATE":
		return types.KindPrivate
	case "T_PROTECTED":
		return types.KindProtected
	case "T_FUNCTION":
		return types.KindFunction
	case "T_CONST":
		return types.KindConst
	}
	return types.KindOther
}

func classifyPunct(text string) types.TokenKind {
	switch text {
	case "(":
		return types.KindOpenParen
	case ")":
		return types.KindCloseParen
	case "{":
		return types.KindOpenBrace
	case "}":
		return types.KindCloseBrace
	case ";":
		return types.KindSemicolon
	}
	return types.KindOther
}

// Normalize converts raw tokens into classified tokens. Spans are assigned
// by accumulating text lengths, so they are byte offsets into the source
// that produced raw.
func Normalize(raw []RawToken, names *NameTable) []types.Token {
	tokens := make([]types.Token, 0, len(raw))
	pos := 0
	for _, r := range raw {
		kind, text := r.Normalize(names)
		tokens = append(tokens, types.Token{
			Kind: kind,
			Text: text,
			Span: types.Span{Start: pos, End: pos + len(text)},
		})
		pos += len(text)
	}
	return tokens
}

// IndexAt returns the index of the first token starting at or after offset,
// or len(tokens) when offset is past the last token. Used to turn a cursor
// byte offset into a scanner cursor index.
func IndexAt(tokens []types.Token, offset int) int {
	lo, hi := 0, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		if tokens[mid].Span.Start < offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
