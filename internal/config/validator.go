package config

import (
	"errors"
	"fmt"
	"strconv"

	mierrors "github.com/standardbeagle/magentointel/internal/errors"
)

// Validate checks the configuration and returns a *errors.ConfigError for
// the first invalid field
func (c *Config) Validate() error {
	switch c.Tokenizer.Backend {
	case BackendPHP, BackendTreeSitter:
	default:
		return mierrors.NewConfigError("tokenizer.backend", c.Tokenizer.Backend,
			fmt.Errorf("must be %q or %q", BackendPHP, BackendTreeSitter))
	}

	if c.Tokenizer.Backend == BackendPHP && c.Tokenizer.PHPBinary == "" {
		return mierrors.NewConfigError("tokenizer.php_binary", "", errors.New("cannot be empty for the php backend"))
	}

	if c.Tokenizer.TimeoutMs <= 0 {
		return mierrors.NewConfigError("tokenizer.timeout_ms", strconv.Itoa(c.Tokenizer.TimeoutMs),
			errors.New("must be positive"))
	}

	if c.Tokenizer.MemoCapacity < 0 {
		return mierrors.NewConfigError("tokenizer.memo_capacity", strconv.Itoa(c.Tokenizer.MemoCapacity),
			errors.New("cannot be negative"))
	}

	if c.Completion.MaxResults < 0 {
		return mierrors.NewConfigError("completion.max_results", strconv.Itoa(c.Completion.MaxResults),
			errors.New("cannot be negative"))
	}

	if c.Completion.FuzzyThreshold < 0 || c.Completion.FuzzyThreshold > 1 {
		return mierrors.NewConfigError("completion.fuzzy_threshold",
			strconv.FormatFloat(c.Completion.FuzzyThreshold, 'f', -1, 64),
			errors.New("must be between 0 and 1"))
	}

	if c.Watch.DebounceMs < 0 {
		return mierrors.NewConfigError("watch.debounce_ms", strconv.Itoa(c.Watch.DebounceMs),
			errors.New("cannot be negative"))
	}

	return nil
}
