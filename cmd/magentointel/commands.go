package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/magentointel/internal/debug"
	"github.com/standardbeagle/magentointel/internal/engine"
	mierrors "github.com/standardbeagle/magentointel/internal/errors"
	"github.com/standardbeagle/magentointel/internal/mcp"
	"github.com/standardbeagle/magentointel/internal/types"
	"github.com/standardbeagle/magentointel/pkg/pathutil"
)

func completeCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: magentointel complete FILE OFFSET|LINE:COLUMN")
	}
	src, err := readBuffer(c, c.Args().Get(0))
	if err != nil {
		return err
	}
	offset, err := parsePosition(src, c.Args().Get(1))
	if err != nil {
		return err
	}

	eng, _, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := c.Context
	out := c.App.Writer

	if c.Bool("prefix") {
		entries, err := eng.CompleteAt(ctx, src, offset)
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return writeJSON(out, entries)
		}
		return writeEntries(out, entries)
	}

	res, err := eng.CompleteDetailed(ctx, src, offset)
	if err != nil {
		var engineErr *mierrors.EngineError
		if !errors.As(err, &engineErr) || engineErr.IsFatal() {
			return err
		}
		if engineErr.Type == mierrors.ErrorTypeExternalToolUnavailable {
			debug.Warn(debug.ComponentTokenizer, err, "php tokenizer unavailable")
		} else {
			debug.Log(debug.ComponentEngine, "no completions: %v\n", err)
		}
	}
	if res.Entries == nil {
		res.Entries = []types.CompletionEntry{}
	}
	if c.Bool("json") {
		return writeJSON(out, res)
	}
	return writeEntries(out, res.Entries)
}

func openCommand(c *cli.Context) error {
	var className string
	switch c.NArg() {
	case 1:
		className = c.Args().Get(0)
	case 2:
		src, err := readBuffer(c, c.Args().Get(0))
		if err != nil {
			return err
		}
		offset, err := parsePosition(src, c.Args().Get(1))
		if err != nil {
			return err
		}
		className = engine.WordAt(src, offset).Text
	default:
		return errors.New("usage: magentointel open CLASS | FILE OFFSET|LINE:COLUMN")
	}
	if className == "" {
		return errors.New("no class name at cursor")
	}

	eng, _, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	path, err := eng.OpenClass(className)
	if err != nil {
		return err
	}
	if c.Bool("relative") {
		root, _ := eng.Root()
		path = pathutil.ToRelative(path, root)
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

func tokensCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: magentointel tokens FILE")
	}
	content, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}

	eng, _, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	tokens, err := eng.Tokenizer().Tokenize(c.Context, string(content))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, tokens)
	}
	for _, tk := range tokens {
		fmt.Fprintf(c.App.Writer, "%d-%d\t%s\t%q\n", tk.Span.Start, tk.Span.End, tk.Kind, tk.Text)
	}
	return nil
}

func mcpCommand(c *cli.Context) error {
	// Keep stdio clean for the protocol
	debug.SetMCPMode(true)
	if c.Bool("debug") {
		if _, err := debug.InitDebugLogFile(); err == nil {
			defer debug.CloseDebugLog()
		}
	}

	eng, cfg, err := newEngine(c)
	if err != nil {
		return debug.Fatal("failed to create engine: %v\n", err)
	}
	server, err := mcp.NewServer(eng, cfg)
	if err != nil {
		_ = eng.Close()
		return debug.Fatal("failed to create MCP server: %v\n", err)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	var runErr error
	select {
	case runErr = <-errChan:
	case sig := <-sigChan:
		debug.LogMCP("received signal %v, shutting down\n", sig)
		cancel()
		select {
		case runErr = <-errChan:
		case <-time.After(2 * time.Second):
			debug.LogMCP("server did not stop in time\n")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		debug.LogMCP("shutdown error: %v\n", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return debug.Fatal("MCP server error: %v\n", runErr)
	}
	return nil
}

func readBuffer(c *cli.Context, file string) (string, error) {
	if c.Bool("stdin") {
		content, err := io.ReadAll(c.App.Reader)
		return string(content), err
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// parsePosition accepts a byte offset or a 1-based LINE:COLUMN
func parsePosition(src, pos string) (int, error) {
	if line, column, ok := strings.Cut(pos, ":"); ok {
		l, err := strconv.Atoi(line)
		if err != nil {
			return 0, fmt.Errorf("invalid line %q", line)
		}
		col, err := strconv.Atoi(column)
		if err != nil {
			return 0, fmt.Errorf("invalid column %q", column)
		}
		return engine.OffsetAt(src, l, col)
	}
	offset, err := strconv.Atoi(pos)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", pos)
	}
	if offset < 0 || offset > len(src) {
		return 0, fmt.Errorf("offset %d outside buffer of %d bytes", offset, len(src))
	}
	return offset, nil
}

func writeEntries(w io.Writer, entries []types.CompletionEntry) error {
	for _, entry := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", entry.Label, entry.InsertText); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func absRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		out = append(out, r)
	}
	return out
}
