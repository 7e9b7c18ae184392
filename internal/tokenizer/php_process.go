package tokenizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/standardbeagle/magentointel/internal/debug"
	mierrors "github.com/standardbeagle/magentointel/internal/errors"
	"github.com/standardbeagle/magentointel/internal/types"
)

// TokenizeProgram prints token_get_all of stdin as JSON
const TokenizeProgram = `echo json_encode(token_get_all(file_get_contents('php://stdin')));`

// ProcessRunner runs a php program given with -r, feeding stdin and
// returning stdout
type ProcessRunner interface {
	Run(ctx context.Context, program string, stdin []byte) ([]byte, error)
}

// ExecRunner runs programs through a php binary on PATH or at an absolute path
type ExecRunner struct {
	Binary string
}

// Run implements ProcessRunner
func (r ExecRunner) Run(ctx context.Context, program string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Binary, "-r", program)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s -r: %w: %s", r.Binary, err, msg)
		}
		return nil, fmt.Errorf("%s -r: %w", r.Binary, err)
	}
	return stdout.Bytes(), nil
}

// PHPTokenizer tokenizes through an external php process
type PHPTokenizer struct {
	runner  ProcessRunner
	names   *NameTable
	timeout time.Duration
}

// NewPHPTokenizer creates a tokenizer. names must have been created for the
// same binary runner invokes; timeout bounds each process invocation (0 for
// no bound beyond ctx).
func NewPHPTokenizer(runner ProcessRunner, names *NameTable, timeout time.Duration) *PHPTokenizer {
	return &PHPTokenizer{runner: runner, names: names, timeout: timeout}
}

// NewExecTokenizer creates a PHPTokenizer for binary using the process-wide
// name table of that binary
func NewExecTokenizer(binary string, timeout time.Duration) *PHPTokenizer {
	runner := ExecRunner{Binary: binary}
	return NewPHPTokenizer(runner, SharedNameTable(binary, runner), timeout)
}

// Tokenize implements Tokenizer. Any process failure or non-JSON output is
// reported as errors.ErrExternalToolUnavailable.
func (t *PHPTokenizer) Tokenize(ctx context.Context, src string) ([]types.Token, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if err := t.names.Load(ctx); err != nil {
		return nil, mierrors.New(mierrors.ErrorTypeExternalToolUnavailable, "token_name", "", err)
	}

	out, err := t.runner.Run(ctx, TokenizeProgram, []byte(src))
	if err != nil {
		return nil, mierrors.New(mierrors.ErrorTypeExternalToolUnavailable, "token_get_all", "", err)
	}

	raw, err := DecodeTokenGetAll(out)
	if err != nil {
		return nil, mierrors.New(mierrors.ErrorTypeExternalToolUnavailable, "token_get_all", "", err)
	}

	debug.LogTokenizer("php tokenized %d bytes into %d tokens\n", len(src), len(raw))
	return Normalize(raw, t.names), nil
}

// DecodeTokenGetAll decodes the JSON encoding of a token_get_all result.
// Array elements become tagged tokens ([code, text, line]); strings become
// bare tokens.
func DecodeTokenGetAll(data []byte) ([]RawToken, error) {
	data = bytes.TrimSpace(data)
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("tokenizer output is not JSON: %.60q", data)
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil, errors.New("tokenizer output is not a JSON array")
	}

	var raw []RawToken
	var decodeErr error
	res.ForEach(func(_, v gjson.Result) bool {
		switch {
		case v.IsArray():
			parts := v.Array()
			if len(parts) < 2 || parts[0].Type != gjson.Number {
				decodeErr = fmt.Errorf("malformed tagged token: %s", v.Raw)
				return false
			}
			raw = append(raw, Tagged(int(parts[0].Int()), parts[1].String()))
		case v.Type == gjson.String:
			raw = append(raw, Bare(v.String()))
		default:
			decodeErr = fmt.Errorf("unexpected token element: %s", v.Raw)
			return false
		}
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return raw, nil
}
