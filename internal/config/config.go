package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tokenizer backend names
const (
	BackendPHP        = "php"
	BackendTreeSitter = "treesitter"
)

// Config file names looked up in the project directory and the home directory
const (
	KDLFileName  = ".magentointel.kdl"
	TOMLFileName = ".magentointel.toml"
)

// Defaults
const (
	DefaultPHPBinary      = "php"
	DefaultTimeoutMs      = 3000
	DefaultMemoCapacity   = 64
	DefaultCacheDir       = ".magentointel-cache"
	DefaultFuzzyThreshold = 0.7
	DefaultDebounceMs     = 200
)

type Config struct {
	Version    int
	Project    Project
	Tokenizer  Tokenizer
	Completion Completion
	Watch      Watch
}

type Project struct {
	Roots    []string // Open folders; the first containing app/code/core/Mage wins
	CacheDir string   // Relative to the Magento root unless absolute
}

type Tokenizer struct {
	Backend         string // "php" or "treesitter"
	PHPBinary       string
	TimeoutMs       int  // Upper bound for one external tokenizer invocation
	MemoCapacity    int  // In-memory memo entries for full-buffer tokenizations (0 disables)
	PersistentCache bool // Store full-buffer tokenizations under CacheDir
}

type Completion struct {
	MaxResults     int     // 0 = unlimited
	FuzzyThreshold float64 // Jaro-Winkler threshold used when a member prefix was typed
}

type Watch struct {
	Enabled    bool
	DebounceMs int
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Version: 1,
		Project: Project{
			Roots:    []string{cwd},
			CacheDir: DefaultCacheDir,
		},
		Tokenizer: Tokenizer{
			Backend:         BackendPHP,
			PHPBinary:       DefaultPHPBinary,
			TimeoutMs:       DefaultTimeoutMs,
			MemoCapacity:    DefaultMemoCapacity,
			PersistentCache: true,
		},
		Completion: Completion{
			FuzzyThreshold: DefaultFuzzyThreshold,
		},
		Watch: Watch{
			DebounceMs: DefaultDebounceMs,
		},
	}
}

// Load loads configuration for the given directory. The file in the user's
// home directory is applied first, then the project file (.magentointel.kdl,
// else .magentointel.toml), both on top of Default().
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}

	cfg := Default()
	cfg.Project.Roots = nil

	if home, err := os.UserHomeDir(); err == nil && filepath.Clean(home) != filepath.Clean(dir) {
		// A broken global file must not block project use
		_, _ = applyFile(cfg, home)
	}
	if _, err := applyFile(cfg, dir); err != nil {
		return nil, err
	}

	if len(cfg.Project.Roots) == 0 {
		cfg.Project.Roots = []string{dir}
	}
	cfg.Project.Roots = absRoots(dir, cfg.Project.Roots)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile applies the KDL file in dir, else the TOML file. It reports
// whether either existed.
func applyFile(cfg *Config, dir string) (bool, error) {
	if content, ok, err := readIfExists(filepath.Join(dir, KDLFileName)); err != nil {
		return false, err
	} else if ok {
		return true, applyKDL(cfg, content)
	}
	if content, ok, err := readIfExists(filepath.Join(dir, TOMLFileName)); err != nil {
		return false, err
	} else if ok {
		return true, applyTOML(cfg, content)
	}
	return false, nil
}

func readIfExists(path string) ([]byte, bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return content, true, nil
}

func absRoots(dir string, roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(dir, r)
		}
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		out = append(out, filepath.Clean(r))
	}
	return out
}

// CachePath returns the persistent cache directory for a Magento root
func (c *Config) CachePath(magentoRoot string) string {
	dir := c.Project.CacheDir
	if dir == "" {
		dir = DefaultCacheDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(magentoRoot, dir)
}

// TokenizerTimeout returns the external tokenizer timeout
func (c *Config) TokenizerTimeout() time.Duration {
	return time.Duration(c.Tokenizer.TimeoutMs) * time.Millisecond
}

// WatchDebounce returns the file watcher debounce interval
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}
