package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/magentointel/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// MCPMode tracks if we're running in MCP mode (set by main)
var MCPMode = false

// debugOutput is the writer for debug output (defaults to nil, meaning no output)
var debugOutput io.Writer

// debugFile holds the open file handle if debug output goes to a file
var debugFile *os.File

// warnOutput receives warnings while no debug output is configured
var warnOutput io.Writer = os.Stderr

// logger wraps debugOutput; rebuilt whenever the output changes
var logger zerolog.Logger = zerolog.Nop()

// debugMutex protects access to debug output
var debugMutex sync.Mutex

// Component names used across the engine
const (
	ComponentTokenizer = "TOKENIZER"
	ComponentResolver  = "RESOLVER"
	ComponentPaths     = "PATHS"
	ComponentMembers   = "MEMBERS"
	ComponentEngine    = "ENGINE"
	ComponentWatch     = "WATCH"
	ComponentMCP       = "MCP"
)

// SetMCPMode enables MCP mode which suppresses all debug output to stdio
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	setOutputLocked(w)
}

// SetWarnOutput sets where Warn writes when no debug output is configured.
// Pass nil to drop such warnings.
func SetWarnOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	warnOutput = w
}

func setOutputLocked(w io.Writer) {
	debugOutput = w
	if w == nil {
		logger = zerolog.Nop()
		return
	}
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// InitDebugLogFile initializes debug logging to a file.
// Returns the path to the log file; call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "magentointel-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	setOutputLocked(file)
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		setOutputLocked(nil)
		return err
	}
	return nil
}

// IsDebugEnabled returns true if debug mode is enabled. In MCP mode output
// is only allowed into a log file opened by InitDebugLogFile.
func IsDebugEnabled() bool {
	if MCPMode && !loggingToFile() {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := strings.ToLower(os.Getenv("DEBUG"))
	return v == "1" || v == "true"
}

func loggingToFile() bool {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugFile != nil
}

func currentLogger() (zerolog.Logger, bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return logger, debugOutput != nil
}

// Log provides structured debug logging with component names
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	l, ok := currentLogger()
	if !ok {
		return
	}
	l.Debug().Str("component", component).Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// LogTokenizer logs tokenizer backend and cache activity
func LogTokenizer(format string, args ...interface{}) {
	Log(ComponentTokenizer, format, args...)
}

// LogResolver logs class resolution steps
func LogResolver(format string, args ...interface{}) {
	Log(ComponentResolver, format, args...)
}

// LogPaths logs class-to-file probing
func LogPaths(format string, args ...interface{}) {
	Log(ComponentPaths, format, args...)
}

// LogMCP provides debug logging specifically for MCP operations
func LogMCP(format string, args ...interface{}) {
	Log(ComponentMCP, format, args...)
}

// Warn records a condition the host should know about even when debug mode
// is off. It goes to the debug output when one is set, else to the warning
// output (stderr by default). In MCP mode it is only written to a log file.
func Warn(component string, err error, msg string) {
	if MCPMode && !loggingToFile() {
		return
	}
	l, ok := currentLogger()
	if !ok {
		w := currentWarnOutput()
		if w == nil {
			return
		}
		l = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	}
	l.Warn().Str("component", component).Err(err).Msg(msg)
}

func currentWarnOutput() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return warnOutput
}

// Fatal outputs a catastrophic error message to the debug log and returns a fatal error.
// Callers decide what to do with it.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !MCPMode {
		if l, ok := currentLogger(); ok {
			l.Error().Str("severity", "fatal").Msg(msg)
		}
	}
	return fmt.Errorf("fatal error: %s", msg)
}
