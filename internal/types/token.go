package types

// TokenKind classifies a lexical PHP token. The set is closed; anything the
// engine does not care about is KindOther.
type TokenKind uint8

const (
	KindOther TokenKind = iota
	KindIdentifier
	KindVariable
	KindObjectOperator // ->
	KindDoubleColon    // ::
	KindStringLiteral
	KindDocComment
	KindWhitespace
	KindOpenParen
	KindCloseParen
	KindOpenBrace
	KindCloseBrace
	KindSemicolon
	KindClass
	KindExtends
	KindStatic
	KindPublic
	KindPrivate
	KindProtected
	KindFunction
	KindConst
)

var tokenKindNames = [...]string{
	KindOther:          "Other",
	KindIdentifier:     "Identifier",
	KindVariable:       "Variable",
	KindObjectOperator: "ObjectOperator",
	KindDoubleColon:    "DoubleColon",
	KindStringLiteral:  "StringLiteral",
	KindDocComment:     "DocComment",
	KindWhitespace:     "Whitespace",
	KindOpenParen:      "OpenParen",
	KindCloseParen:     "CloseParen",
	KindOpenBrace:      "OpenBrace",
	KindCloseBrace:     "CloseBrace",
	KindSemicolon:      "Semicolon",
	KindClass:          "Class",
	KindExtends:        "Extends",
	KindStatic:         "Static",
	KindPublic:         "Public",
	KindPrivate:        "Private",
	KindProtected:      "Protected",
	KindFunction:       "Function",
	KindConst:          "Const",
}

// String returns the kind name
func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "Other"
}

// Span is a half-open byte range [Start, End) into the tokenized source
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Token is one classified lexical unit. Tokens are values and never mutated
// after the tokenizer produces them.
type Token struct {
	Kind TokenKind `json:"kind"`
	Text string    `json:"text"`
	Span Span      `json:"span"`
}

// Is reports whether the token has the given kind
func (t Token) Is(kind TokenKind) bool {
	return t.Kind == kind
}

// ExpressionFragment is the token slice of one isolated statement or call
// chain, in source order.
type ExpressionFragment []Token
