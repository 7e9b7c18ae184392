package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, BackendPHP, cfg.Tokenizer.Backend)
	assert.Equal(t, DefaultPHPBinary, cfg.Tokenizer.PHPBinary)
	assert.Equal(t, DefaultTimeoutMs, cfg.Tokenizer.TimeoutMs)
	assert.Equal(t, DefaultMemoCapacity, cfg.Tokenizer.MemoCapacity)
	assert.True(t, cfg.Tokenizer.PersistentCache)
	assert.Equal(t, DefaultCacheDir, cfg.Project.CacheDir)
	assert.Equal(t, DefaultFuzzyThreshold, cfg.Completion.FuzzyThreshold)
	assert.False(t, cfg.Watch.Enabled)
}

func TestParseKDL_AllSections(t *testing.T) {
	kdlContent := `
project {
    roots "." "../shop"
    cache_dir "/var/cache/mi"
}
tokenizer {
    backend "treesitter"
    php_binary "/usr/local/bin/php7"
    timeout_ms 5000
    memo_capacity 16
    persistent_cache false
}
completion {
    max_results 50
    fuzzy_threshold 0.85
}
watch {
    enabled true
    debounce_ms 50
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)

	assert.Equal(t, []string{".", "../shop"}, cfg.Project.Roots)
	assert.Equal(t, "/var/cache/mi", cfg.Project.CacheDir)
	assert.Equal(t, BackendTreeSitter, cfg.Tokenizer.Backend)
	assert.Equal(t, "/usr/local/bin/php7", cfg.Tokenizer.PHPBinary)
	assert.Equal(t, 5000, cfg.Tokenizer.TimeoutMs)
	assert.Equal(t, 16, cfg.Tokenizer.MemoCapacity)
	assert.False(t, cfg.Tokenizer.PersistentCache)
	assert.Equal(t, 50, cfg.Completion.MaxResults)
	assert.InDelta(t, 0.85, cfg.Completion.FuzzyThreshold, 1e-9)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 50, cfg.Watch.DebounceMs)
}

func TestParseKDL_PartialSection(t *testing.T) {
	cfg, err := parseKDL(`tokenizer { timeout_ms 750; }`)
	require.NoError(t, err)

	assert.Equal(t, 750, cfg.Tokenizer.TimeoutMs)
	assert.Equal(t, BackendPHP, cfg.Tokenizer.Backend, "untouched fields keep defaults")
}

func TestParseKDL_Invalid(t *testing.T) {
	tests := map[string]string{
		"unterminated block": `tokenizer { backend "php"`,
		"unterminated block on its own line": "tokenizer {\n  backend \"php\"\n",
		"stray close":        "tokenizer {\n  backend \"php\"\n}\n}\n",
		"unclosed string":    `tokenizer { backend "php; }`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseKDL(content)
			assert.Error(t, err)
		})
	}
}

func TestCheckBraces(t *testing.T) {
	valid := []string{
		"",
		"tokenizer {\n  php_binary \"/opt/{php}/bin\"\n}\n",
		"// project {\ntokenizer { timeout_ms 1; }\n",
		"/* { */ watch { enabled true; }",
		`project { cache_dir r#"C:\{cache}"#; }`,
		`project { cache_dir "a\"{"; }`,
	}
	for _, content := range valid {
		assert.NoError(t, checkBraces([]byte(content)), content)
	}

	invalid := []string{
		"tokenizer {",
		"}",
		"/* tokenizer { timeout_ms 1; }",
	}
	for _, content := range invalid {
		assert.Error(t, checkBraces([]byte(content)), content)
	}
}

func TestLoadKDL_Missing(t *testing.T) {
	cfg, err := LoadKDL(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PrefersKDLOverTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName), []byte(`tokenizer { timeout_ms 1000; }`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TOMLFileName), []byte("[tokenizer]\ntimeout_ms = 2000\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Tokenizer.TimeoutMs)
}

func TestLoad_HomeThenProject(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, KDLFileName),
		[]byte("tokenizer {\n  php_binary \"/opt/php/bin/php\"\n  timeout_ms 9000\n}\n"), 0644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName), []byte(`tokenizer { timeout_ms 1200; }`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/opt/php/bin/php", cfg.Tokenizer.PHPBinary, "global setting survives")
	assert.Equal(t, 1200, cfg.Tokenizer.TimeoutMs, "project setting wins")
	assert.Equal(t, []string{filepath.Clean(dir)}, cfg.Project.Roots)
}

func TestLoad_NoFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Clean(dir)}, cfg.Project.Roots)
	assert.Equal(t, filepath.Join(dir, DefaultCacheDir), cfg.CachePath(dir))
}

func TestLoad_RelativeRoots(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName), []byte(`project { roots "shop"; }`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "shop")}, cfg.Project.Roots)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName), []byte(`tokenizer { backend "hhvm"; }`), 0644))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "tokenizer.backend")
}
