package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	mierrors "github.com/standardbeagle/magentointel/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"treesitter without php binary", func(c *Config) {
			c.Tokenizer.Backend = BackendTreeSitter
			c.Tokenizer.PHPBinary = ""
		}, ""},
		{"unknown backend", func(c *Config) { c.Tokenizer.Backend = "hhvm" }, "tokenizer.backend"},
		{"php without binary", func(c *Config) { c.Tokenizer.PHPBinary = "" }, "tokenizer.php_binary"},
		{"zero timeout", func(c *Config) { c.Tokenizer.TimeoutMs = 0 }, "tokenizer.timeout_ms"},
		{"negative memo", func(c *Config) { c.Tokenizer.MemoCapacity = -1 }, "tokenizer.memo_capacity"},
		{"negative max results", func(c *Config) { c.Completion.MaxResults = -5 }, "completion.max_results"},
		{"threshold above one", func(c *Config) { c.Completion.FuzzyThreshold = 1.5 }, "completion.fuzzy_threshold"},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -1 }, "watch.debounce_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *mierrors.ConfigError
			if assert.True(t, errors.As(err, &cfgErr)) {
				assert.Equal(t, tt.field, cfgErr.Field)
			}
		})
	}
}
