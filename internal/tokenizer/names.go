package tokenizer

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// NameTableProgram echoes "code,name|" for every token code 0-998. It is
// run once per php binary to learn that binary's token names.
const NameTableProgram = `for ($i = 0; $i < 999; $i++) { echo $i, ',', token_name($i), '|'; }`

// NameTable maps token codes to token names. The table is built lazily on
// first Load and never invalidated. Concurrent first loads may each run the
// build; the first stored result wins and later ones are discarded, which is
// harmless because the table is a pure function of the php binary.
type NameTable struct {
	build func(ctx context.Context) (map[int]string, error)
	table atomic.Pointer[map[int]string]
}

// NewNameTable creates a table that is filled by build on first use
func NewNameTable(build func(ctx context.Context) (map[int]string, error)) *NameTable {
	return &NameTable{build: build}
}

// StaticNameTable creates an already built table
func StaticNameTable(names map[int]string) *NameTable {
	t := &NameTable{}
	t.table.Store(&names)
	return t
}

// Load builds the table if it has not been built yet. A failed build is not
// remembered; the next Load tries again.
func (t *NameTable) Load(ctx context.Context) error {
	if t.table.Load() != nil {
		return nil
	}
	if t.build == nil {
		return errors.New("token name table has no builder")
	}
	names, err := t.build(ctx)
	if err != nil {
		return err
	}
	t.table.CompareAndSwap(nil, &names)
	return nil
}

// Loaded reports whether the table has been built
func (t *NameTable) Loaded() bool {
	return t != nil && t.table.Load() != nil
}

// Name returns the token name for code, or "" when unknown or not loaded
func (t *NameTable) Name(code int) string {
	if t == nil {
		return ""
	}
	p := t.table.Load()
	if p == nil {
		return ""
	}
	return (*p)[code]
}

// Len returns the number of known codes
func (t *NameTable) Len() int {
	if t == nil {
		return 0
	}
	p := t.table.Load()
	if p == nil {
		return 0
	}
	return len(*p)
}

// ParseNameReport parses the output of NameTableProgram. Entries named
// UNKNOWN and malformed entries are skipped.
func ParseNameReport(report string) map[int]string {
	names := make(map[int]string)
	for _, entry := range strings.Split(report, "|") {
		codeText, name, ok := strings.Cut(entry, ",")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || name == "UNKNOWN" {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(codeText))
		if err != nil {
			continue
		}
		names[code] = name
	}
	return names
}

// sharedTables holds one NameTable per php binary for the process lifetime
var sharedTables sync.Map

// SharedNameTable returns the process-wide table for binary, creating it on
// first request. runner is only used by the first caller for a binary.
func SharedNameTable(binary string, runner ProcessRunner) *NameTable {
	if t, ok := sharedTables.Load(binary); ok {
		return t.(*NameTable)
	}
	t, _ := sharedTables.LoadOrStore(binary, NewNameTable(nameBuilder(runner)))
	return t.(*NameTable)
}

func nameBuilder(runner ProcessRunner) func(ctx context.Context) (map[int]string, error) {
	return func(ctx context.Context) (map[int]string, error) {
		out, err := runner.Run(ctx, NameTableProgram, nil)
		if err != nil {
			return nil, err
		}
		names := ParseNameReport(string(out))
		if len(names) == 0 {
			return nil, errors.New("token name report is empty")
		}
		return names, nil
	}
}
