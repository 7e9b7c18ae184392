package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	content := `
[project]
roots = ["/srv/magento"]

[tokenizer]
backend = "treesitter"
memo_capacity = 0
persistent_cache = false

[completion]
fuzzy_threshold = 0.5

[watch]
enabled = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, TOMLFileName), []byte(content), 0644))

	cfg, err := LoadTOML(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"/srv/magento"}, cfg.Project.Roots)
	assert.Equal(t, BackendTreeSitter, cfg.Tokenizer.Backend)
	assert.Equal(t, 0, cfg.Tokenizer.MemoCapacity)
	assert.False(t, cfg.Tokenizer.PersistentCache)
	assert.Equal(t, DefaultTimeoutMs, cfg.Tokenizer.TimeoutMs, "absent keys keep defaults")
	assert.InDelta(t, 0.5, cfg.Completion.FuzzyThreshold, 1e-9)
	assert.True(t, cfg.Watch.Enabled)
}

func TestLoadTOML_Missing(t *testing.T) {
	cfg, err := LoadTOML(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadTOML_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TOMLFileName), []byte("[tokenizer\nbackend = "), 0644))

	_, err := LoadTOML(dir)
	assert.ErrorContains(t, err, "failed to parse TOML config")
}
