// Package scanner isolates the statement that ends at the cursor.
package scanner

import "github.com/standardbeagle/magentointel/internal/types"

// IsolateStatement returns the tokens of the statement or call chain that
// ends immediately before cursorIndex.
//
// Tokens are walked backward with a paren counter: ")" increments it and
// "(" decrements it. The walk stops, excluding the boundary token, at the
// first ";", "{" or "}" seen at nesting zero, or as soon as the counter goes
// negative (the opening paren of an enclosing call). Reaching the start of
// the buffer yields everything before the cursor.
func IsolateStatement(tokens []types.Token, cursorIndex int) types.ExpressionFragment {
	if cursorIndex > len(tokens) {
		cursorIndex = len(tokens)
	}
	if cursorIndex <= 0 {
		return types.ExpressionFragment{}
	}

	start := 0
	nest := 0
scan:
	for i := cursorIndex - 1; i >= 0; i-- {
		switch tokens[i].Kind {
		case types.KindCloseParen:
			nest++
		case types.KindOpenParen:
			nest--
			if nest < 0 {
				start = i + 1
				break scan
			}
		case types.KindSemicolon, types.KindOpenBrace, types.KindCloseBrace:
			if nest == 0 {
				start = i + 1
				break scan
			}
		}
	}

	fragment := make(types.ExpressionFragment, cursorIndex-start)
	copy(fragment, tokens[start:cursorIndex])
	return fragment
}
