package tokenizer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mierrors "github.com/standardbeagle/magentointel/internal/errors"
	"github.com/standardbeagle/magentointel/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.TokenKind
	}{
		{"T_STRING", "getModel", types.KindIdentifier},
		{"T_NAME_QUALIFIED", `Foo\Bar`, types.KindIdentifier},
		{"T_VARIABLE", "$this", types.KindVariable},
		{"T_OBJECT_OPERATOR", "->", types.KindObjectOperator},
		{"T_DOUBLE_COLON", "::", types.KindDoubleColon},
		{"T_PAAMAYIM_NEKUDOTAYIM", "::", types.KindDoubleColon},
		{"T_CONSTANT_ENCAPSED_STRING", "'catalog/product'", types.KindStringLiteral},
		{"T_DOC_COMMENT", "/** @var Foo $a */", types.KindDocComment},
		{"T_WHITESPACE", "\n  ", types.KindWhitespace},
		{"T_CLASS", "class", types.KindClass},
		{"T_EXTENDS", "extends", types.KindExtends},
		{"T_STATIC", "static", types.KindStatic},
		{"T_PUBLIC", "public", types.KindPublic},
		{"T_PRIVATE", "private", types.KindPrivate},
		{"T_PROTECTED", "protected", types.KindProtected},
		{"T_FUNCTION", "function", types.KindFunction},
		{"T_CONST", "const", types.KindConst},
		{"T_LNUMBER", "1", types.KindOther},
		{"", "(", types.KindOpenParen},
		{"", ")", types.KindCloseParen},
		{"", "{", types.KindOpenBrace},
		{"", "}", types.KindCloseBrace},
		{"", ";", types.KindSemicolon},
		{"", "=", types.KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name, tt.text))
		})
	}
}

func TestRawToken_Normalize(t *testing.T) {
	names := StaticNameTable(map[int]string{266: "T_VARIABLE"})

	kind, text := Tagged(266, "$this").Normalize(names)
	assert.Equal(t, types.KindVariable, kind)
	assert.Equal(t, "$this", text)

	kind, text = Bare(";").Normalize(names)
	assert.Equal(t, types.KindSemicolon, kind)
	assert.Equal(t, ";", text)

	kind, _ = Tagged(999, "x").Normalize(names)
	assert.Equal(t, types.KindOther, kind, "unknown codes are Other")

	kind, _ = Tagged(266, "$a").Normalize(nil)
	assert.Equal(t, types.KindOther, kind, "nil table knows no names")
}

func TestDecodeTokenGetAll(t *testing.T) {
	raw, err := DecodeTokenGetAll([]byte(`[[389,"<?php ",1],[266,"$a",1],";"]` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, []RawToken{Tagged(389, "<?php "), Tagged(266, "$a"), Bare(";")}, raw)

	raw, err = DecodeTokenGetAll([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestDecodeTokenGetAll_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"PHP Fatal error: something",
		"false",
		`{"a":1}`,
		`[{"a":1}]`,
		`[["x"]]`,
		`[[1]]`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := DecodeTokenGetAll([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestNormalize_Spans(t *testing.T) {
	names := StaticNameTable(ParseNameReport(testNameReport))
	raw := []RawToken{Tagged(389, "<?php "), Tagged(266, "$this"), Tagged(384, "->"), Tagged(262, "getId"), Bare("("), Bare(")")}

	tokens := Normalize(raw, names)
	require.Len(t, tokens, 6)
	assert.Equal(t, types.Span{Start: 0, End: 6}, tokens[0].Span)
	assert.Equal(t, types.Token{Kind: types.KindVariable, Text: "$this", Span: types.Span{Start: 6, End: 11}}, tokens[1])
	assert.Equal(t, types.KindObjectOperator, tokens[2].Kind)
	assert.Equal(t, types.Span{Start: 13, End: 18}, tokens[3].Span)
	assert.Equal(t, types.KindOpenParen, tokens[4].Kind)
	assert.Equal(t, types.Span{Start: 19, End: 20}, tokens[5].Span)
}

func TestIndexAt(t *testing.T) {
	tokens := Normalize([]RawToken{Bare("ab"), Bare("c"), Bare("def")}, nil)
	assert.Equal(t, 0, IndexAt(tokens, 0))
	assert.Equal(t, 1, IndexAt(tokens, 1))
	assert.Equal(t, 1, IndexAt(tokens, 2))
	assert.Equal(t, 2, IndexAt(tokens, 3))
	assert.Equal(t, 3, IndexAt(tokens, 6))
	assert.Equal(t, 0, IndexAt(nil, 5))
}

func TestParseNameReport(t *testing.T) {
	names := ParseNameReport("0,UNKNOWN|262,T_STRING|garbage|x,T_BAD|266,T_VARIABLE|999,|")
	assert.Equal(t, map[int]string{262: "T_STRING", 266: "T_VARIABLE"}, names)
	assert.Empty(t, ParseNameReport(""))
}

func TestNameTable_BuildsOnce(t *testing.T) {
	var builds int32
	table := NewNameTable(func(context.Context) (map[int]string, error) {
		atomic.AddInt32(&builds, 1)
		return map[int]string{262: "T_STRING"}, nil
	})
	assert.False(t, table.Loaded())
	assert.Equal(t, "", table.Name(262), "unbuilt table knows nothing")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, table.Load(context.Background()))
		}()
	}
	wg.Wait()

	require.True(t, table.Loaded())
	assert.Equal(t, "T_STRING", table.Name(262))
	assert.Equal(t, 1, table.Len())

	after := atomic.LoadInt32(&builds)
	require.NoError(t, table.Load(context.Background()))
	assert.Equal(t, after, atomic.LoadInt32(&builds), "a built table is never rebuilt")
}

func TestNameTable_RetriesFailedBuild(t *testing.T) {
	fail := true
	table := NewNameTable(func(context.Context) (map[int]string, error) {
		if fail {
			return nil, errors.New("php missing")
		}
		return map[int]string{1: "T_X"}, nil
	})

	assert.Error(t, table.Load(context.Background()))
	assert.False(t, table.Loaded())

	fail = false
	require.NoError(t, table.Load(context.Background()))
	assert.Equal(t, "T_X", table.Name(1))
}

func TestNameTable_Nil(t *testing.T) {
	var table *NameTable
	assert.Equal(t, "", table.Name(1))
	assert.Equal(t, 0, table.Len())
	assert.False(t, table.Loaded())
	assert.Error(t, (&NameTable{}).Load(context.Background()))
}

func TestSharedNameTable(t *testing.T) {
	runner := &fakeRunner{}
	a := SharedNameTable("php-shared-test-a", runner)
	assert.Same(t, a, SharedNameTable("php-shared-test-a", &fakeRunner{}))
	assert.NotSame(t, a, SharedNameTable("php-shared-test-b", runner))

	require.NoError(t, a.Load(context.Background()))
	assert.Equal(t, "T_VARIABLE", a.Name(266))
	names, _ := runner.calls()
	assert.Equal(t, 1, names)
}

func TestPHPTokenizer_Tokenize(t *testing.T) {
	src := "<?php $this->load(1);"
	runner := &fakeRunner{output: `[[389,"<?php ",1],[266,"$this",1],[384,"->",1],[262,"load",1],"(",[260,"1",1],")",";"]`}
	tok := NewPHPTokenizer(runner, NewNameTable(nameBuilder(runner)), 0)

	tokens, err := tok.Tokenize(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src, runner.lastStdin)

	kinds := make([]types.TokenKind, len(tokens))
	var text strings.Builder
	for i, tk := range tokens {
		kinds[i] = tk.Kind
		text.WriteString(tk.Text)
	}
	assert.Equal(t, []types.TokenKind{
		types.KindOther, types.KindVariable, types.KindObjectOperator, types.KindIdentifier,
		types.KindOpenParen, types.KindOther, types.KindCloseParen, types.KindSemicolon,
	}, kinds)
	assert.Equal(t, src, text.String())
	assert.Equal(t, len(src), tokens[len(tokens)-1].Span.End)

	_, err = tok.Tokenize(context.Background(), src)
	require.NoError(t, err)
	names, calls := runner.calls()
	assert.Equal(t, 1, names, "name table is queried once")
	assert.Equal(t, 2, calls, "fragments are never cached here")
}

func TestPHPTokenizer_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{"process fails", &fakeRunner{err: errors.New("exec: \"php\": executable file not found in $PATH")}},
		{"non-json output", &fakeRunner{output: "PHP Parse error: syntax error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewPHPTokenizer(tt.runner, NewNameTable(nameBuilder(tt.runner)), 0)
			tokens, err := tok.Tokenize(context.Background(), "<?php $a->")
			assert.Nil(t, tokens)
			assert.ErrorIs(t, err, mierrors.ErrExternalToolUnavailable)
		})
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{Binary: "magentointel-no-such-php"}.Run(context.Background(), "echo 1;", nil)
	assert.Error(t, err)

	tok := NewExecTokenizer("magentointel-no-such-php", 0)
	_, err = tok.Tokenize(context.Background(), "<?php")
	assert.True(t, mierrors.IsType(err, mierrors.ErrorTypeExternalToolUnavailable))
}
