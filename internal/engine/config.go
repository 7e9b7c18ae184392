package engine

import (
	"fmt"
	"path/filepath"

	"github.com/standardbeagle/magentointel/internal/cache"
	"github.com/standardbeagle/magentointel/internal/config"
	"github.com/standardbeagle/magentointel/internal/debug"
	"github.com/standardbeagle/magentointel/internal/magento"
	"github.com/standardbeagle/magentointel/internal/tokenizer"
	"github.com/standardbeagle/magentointel/internal/version"
)

// NewFromConfig builds an engine from cfg. Roots default to
// cfg.Project.Roots when locator is nil.
func NewFromConfig(cfg *config.Config, locator magento.RootLocator) (*Engine, error) {
	if locator == nil {
		locator = magento.StaticRoots(cfg.Project.Roots)
	}

	backend, closer, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	var store tokenizer.PersistentCache
	if cfg.Tokenizer.PersistentCache {
		if root, ok := magento.FindProjectRoot(locator); ok {
			// Entries are only valid for the backend and build that wrote them
			dir := filepath.Join(cfg.CachePath(root), cfg.Tokenizer.Backend+"-"+version.BuildID())
			debug.Log(debug.ComponentEngine, "token cache at %s\n", dir)
			store = cache.NewDiskCache(dir)
		}
	}

	e, err := New(Options{
		Tokenizer:      tokenizer.NewCachingTokenizer(backend, cfg.Tokenizer.MemoCapacity, store),
		Roots:          locator,
		MaxResults:     cfg.Completion.MaxResults,
		FuzzyThreshold: cfg.Completion.FuzzyThreshold,
	})
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	return e, nil
}

func newBackend(cfg *config.Config) (tokenizer.Tokenizer, func() error, error) {
	switch cfg.Tokenizer.Backend {
	case config.BackendPHP:
		return tokenizer.NewExecTokenizer(cfg.Tokenizer.PHPBinary, cfg.TokenizerTimeout()), nil, nil
	case config.BackendTreeSitter:
		ts, err := tokenizer.NewTreeSitterTokenizer()
		if err != nil {
			return nil, nil, err
		}
		return ts, func() error { ts.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown tokenizer backend %q", cfg.Tokenizer.Backend)
	}
}
