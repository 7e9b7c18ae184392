package tokenizer

import (
	"context"
	"sync"
)

const testNameReport = "0,UNKNOWN|260,T_LNUMBER|262,T_STRING|266,T_VARIABLE|" +
	"269,T_CONSTANT_ENCAPSED_STRING|346,T_FUNCTION|365,T_PUBLIC|369,T_CLASS|373,T_EXTENDS|" +
	"381,T_DOC_COMMENT|384,T_OBJECT_OPERATOR|389,T_OPEN_TAG|392,T_WHITESPACE|397,T_DOUBLE_COLON|"

// fakeRunner answers the name table program with testNameReport and any
// other program with output
type fakeRunner struct {
	mu         sync.Mutex
	output     string
	err        error
	nameCalls  int
	tokenCalls int
	lastStdin  string
}

func (f *fakeRunner) Run(_ context.Context, program string, stdin []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if program == NameTableProgram {
		f.nameCalls++
		return []byte(testNameReport), nil
	}
	f.tokenCalls++
	f.lastStdin = string(stdin)
	return []byte(f.output), nil
}

func (f *fakeRunner) calls() (names, tokens int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nameCalls, f.tokenCalls
}
