// Package testhelpers provides shared fixtures for MagentoIntel tests
package testhelpers

import (
	"github.com/standardbeagle/magentointel/internal/config"
)

// TestConfigBuilder builds configs for tests with hermetic defaults: the
// tree-sitter backend and no persistent token cache, so tests need neither
// a PHP binary nor a writable cache directory.
//
//	cfg := testhelpers.NewTestConfigBuilder(project.Root()).
//		WithWatch(20).
//		Build()
type TestConfigBuilder struct {
	cfg *config.Config
}

// NewTestConfigBuilder creates a builder whose only open root is root
func NewTestConfigBuilder(root string) *TestConfigBuilder {
	cfg := config.Default()
	cfg.Project.Roots = []string{root}
	cfg.Tokenizer.Backend = config.BackendTreeSitter
	cfg.Tokenizer.PersistentCache = false
	return &TestConfigBuilder{cfg: cfg}
}

// WithRoots replaces the open roots
func (b *TestConfigBuilder) WithRoots(roots ...string) *TestConfigBuilder {
	b.cfg.Project.Roots = roots
	return b
}

// WithBackend selects the tokenizer backend
func (b *TestConfigBuilder) WithBackend(backend string) *TestConfigBuilder {
	b.cfg.Tokenizer.Backend = backend
	return b
}

// WithPersistentCache enables the token cache below dir
func (b *TestConfigBuilder) WithPersistentCache(dir string) *TestConfigBuilder {
	b.cfg.Tokenizer.PersistentCache = true
	b.cfg.Project.CacheDir = dir
	return b
}

// WithWatch enables file watching with the given debounce
func (b *TestConfigBuilder) WithWatch(debounceMs int) *TestConfigBuilder {
	b.cfg.Watch.Enabled = true
	b.cfg.Watch.DebounceMs = debounceMs
	return b
}

// WithCompletion sets the result limit and fuzzy threshold
func (b *TestConfigBuilder) WithCompletion(maxResults int, fuzzyThreshold float64) *TestConfigBuilder {
	b.cfg.Completion.MaxResults = maxResults
	b.cfg.Completion.FuzzyThreshold = fuzzyThreshold
	return b
}

// Build returns the config
func (b *TestConfigBuilder) Build() *config.Config {
	return b.cfg
}
