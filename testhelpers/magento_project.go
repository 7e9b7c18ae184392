package testhelpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Magento code pools and the directories AddClass places them in
var poolDirs = map[string]string{
	"core":      "app/code/core",
	"local":     "app/code/local",
	"community": "app/code/community",
	"app":       "app",
	"lib":       "lib",
}

// MagentoProject is an on-disk Magento 1 tree rooted in t.TempDir()
type MagentoProject struct {
	t    testing.TB
	root string
}

// NewMagentoProject creates a project containing app/code/core/Mage
func NewMagentoProject(t testing.TB) *MagentoProject {
	t.Helper()
	p := &MagentoProject{t: t, root: t.TempDir()}
	p.AddDir("app/code/core/Mage")
	return p
}

// Root returns the project root
func (p *MagentoProject) Root() string {
	return p.root
}

// AddDir creates a directory relative to the root
func (p *MagentoProject) AddDir(rel string) *MagentoProject {
	p.t.Helper()
	if err := os.MkdirAll(filepath.Join(p.root, filepath.FromSlash(rel)), 0o755); err != nil {
		p.t.Fatalf("failed to create %s: %v", rel, err)
	}
	return p
}

// AddFile writes content to a file relative to the root and returns its
// absolute path
func (p *MagentoProject) AddFile(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatalf("failed to create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}

// AddClass writes source as the file of className inside pool ("core",
// "local", "community", "app" or "lib") and returns its absolute path
func (p *MagentoProject) AddClass(pool, className, source string) string {
	p.t.Helper()
	dir, ok := poolDirs[pool]
	if !ok {
		p.t.Fatalf("unknown pool %q", pool)
	}
	return p.AddFile(ClassFile(dir, className), source)
}

// ClassFile returns the slash-separated file of className under dir
func ClassFile(dir, className string) string {
	return dir + "/" + strings.ReplaceAll(className, "_", "/") + ".php"
}
