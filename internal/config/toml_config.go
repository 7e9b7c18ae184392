package config

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors the KDL layout; pointer fields distinguish "absent" from zero
type tomlConfig struct {
	Project struct {
		Roots    []string `toml:"roots"`
		CacheDir *string  `toml:"cache_dir"`
	} `toml:"project"`
	Tokenizer struct {
		Backend         *string `toml:"backend"`
		PHPBinary       *string `toml:"php_binary"`
		TimeoutMs       *int    `toml:"timeout_ms"`
		MemoCapacity    *int    `toml:"memo_capacity"`
		PersistentCache *bool   `toml:"persistent_cache"`
	} `toml:"tokenizer"`
	Completion struct {
		MaxResults     *int     `toml:"max_results"`
		FuzzyThreshold *float64 `toml:"fuzzy_threshold"`
	} `toml:"completion"`
	Watch struct {
		Enabled    *bool `toml:"enabled"`
		DebounceMs *int  `toml:"debounce_ms"`
	} `toml:"watch"`
}

// LoadTOML loads .magentointel.toml from dir on top of Default().
// Returns nil, nil when the file does not exist.
func LoadTOML(dir string) (*Config, error) {
	content, ok, err := readIfExists(filepath.Join(dir, TOMLFileName))
	if err != nil || !ok {
		return nil, err
	}
	cfg := Default()
	cfg.Project.Roots = nil
	if err := applyTOML(cfg, content); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyTOML(cfg *Config, content []byte) error {
	var tc tomlConfig
	if err := toml.Unmarshal(content, &tc); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if len(tc.Project.Roots) > 0 {
		cfg.Project.Roots = tc.Project.Roots
	}
	setIf(&cfg.Project.CacheDir, tc.Project.CacheDir)
	setIf(&cfg.Tokenizer.Backend, tc.Tokenizer.Backend)
	setIf(&cfg.Tokenizer.PHPBinary, tc.Tokenizer.PHPBinary)
	setIf(&cfg.Tokenizer.TimeoutMs, tc.Tokenizer.TimeoutMs)
	setIf(&cfg.Tokenizer.MemoCapacity, tc.Tokenizer.MemoCapacity)
	setIf(&cfg.Tokenizer.PersistentCache, tc.Tokenizer.PersistentCache)
	setIf(&cfg.Completion.MaxResults, tc.Completion.MaxResults)
	setIf(&cfg.Completion.FuzzyThreshold, tc.Completion.FuzzyThreshold)
	setIf(&cfg.Watch.Enabled, tc.Watch.Enabled)
	setIf(&cfg.Watch.DebounceMs, tc.Watch.DebounceMs)
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
