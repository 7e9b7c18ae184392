package testhelpers

import (
	"context"
	"regexp"

	"github.com/standardbeagle/magentointel/internal/types"
)

// lexRules are tried in order at every offset; the first match wins
var lexRules = []struct {
	re   *regexp.Regexp
	kind types.TokenKind
}{
	{regexp.MustCompile(`^/\*\*[\s\S]*?\*/`), types.KindDocComment},
	{regexp.MustCompile(`^(?:/\*[\s\S]*?\*/|//[^\n]*)`), types.KindOther},
	{regexp.MustCompile(`^<\?php\s?`), types.KindOther},
	{regexp.MustCompile(`^\s+`), types.KindWhitespace},
	{regexp.MustCompile(`^\$\w+`), types.KindVariable},
	{regexp.MustCompile(`^(?:'(?:[^'\\]|\\.)*'|"(?:[^"\\$]|\\.)*")`), types.KindStringLiteral},
	{regexp.MustCompile(`^->`), types.KindObjectOperator},
	{regexp.MustCompile(`^::`), types.KindDoubleColon},
	{regexp.MustCompile(`^[A-Za-z_\\][\w\\]*`), types.KindIdentifier},
}

var keywords = map[string]types.TokenKind{
	"class":     types.KindClass,
	"extends":   types.KindExtends,
	"static":    types.KindStatic,
	"public":    types.KindPublic,
	"private":   types.KindPrivate,
	"protected": types.KindProtected,
	"function":  types.KindFunction,
	"const":     types.KindConst,
}

var punct = map[byte]types.TokenKind{
	'(': types.KindOpenParen,
	')': types.KindCloseParen,
	'{': types.KindOpenBrace,
	'}': types.KindCloseBrace,
	';': types.KindSemicolon,
}

// LexPHP is a small regexp lexer producing the same token shapes as the real
// tokenizers for the PHP subset used in tests. It never fails; unknown bytes
// become one-byte Other tokens.
func LexPHP(src string) []types.Token {
	var tokens []types.Token
	pos := 0
	for pos < len(src) {
		rest := src[pos:]
		kind, n := types.KindOther, 1
		if k, ok := punct[rest[0]]; ok {
			kind = k
		} else {
			for _, rule := range lexRules {
				if m := rule.re.FindString(rest); m != "" {
					kind, n = rule.kind, len(m)
					break
				}
			}
		}
		text := src[pos : pos+n]
		if kind == types.KindIdentifier {
			if kw, ok := keywords[text]; ok {
				kind = kw
			}
		}
		tokens = append(tokens, types.Token{Kind: kind, Text: text, Span: types.Span{Start: pos, End: pos + n}})
		pos += n
	}
	return tokens
}

// LexTokenizer adapts LexPHP to the tokenizer interface
type LexTokenizer struct{}

// Tokenize implements tokenizer.Tokenizer
func (LexTokenizer) Tokenize(ctx context.Context, src string) ([]types.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LexPHP(src), nil
}
