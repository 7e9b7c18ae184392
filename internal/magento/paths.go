package magento

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/magentointel/internal/debug"
)

// searchLayers are tried in order; the first existing file wins
var searchLayers = []string{
	"app/code/core",
	"app",
	"lib",
	"app/code/local",
	"app/code/community",
}

// modulePools are searched for vendor folders when every layer misses
var modulePools = []string{
	"app/code/local",
	"app/code/community",
}

// PathResolver finds class files under one Magento root
type PathResolver struct {
	root string
	fsys fs.FS
}

// NewPathResolver resolves against the directory root
func NewPathResolver(root string) *PathResolver {
	return NewPathResolverFS(root, os.DirFS(root))
}

// NewPathResolverFS resolves against fsys; returned paths are joined onto
// root
func NewPathResolverFS(root string, fsys fs.FS) *PathResolver {
	return &PathResolver{root: root, fsys: fsys}
}

// Root returns the Magento root
func (p *PathResolver) Root() string {
	return p.root
}

// ResolvePath returns the file declaring className.
//
// Layers are tried in order: app/code/core, app, lib, app/code/local,
// app/code/community. When all miss and the class starts with "Mage_", each
// vendor folder of app/code/local and then app/code/community replaces
// "Mage" and the path is tried again, so Mage_Foo_Model_Bar can be found
// as app/code/community/Acme/Foo/Model/Bar.php.
func (p *PathResolver) ResolvePath(className string) (string, bool) {
	if p == nil || p.root == "" || className == "" {
		return "", false
	}
	rel := classRelPath(className)
	if !fs.ValidPath(rel) {
		return "", false
	}

	for _, layer := range searchLayers {
		if candidate := layer + "/" + rel; p.isFile(candidate) {
			return p.abs(candidate), true
		}
	}

	vendor, rest, ok := strings.Cut(rel, "/")
	if !ok || vendor != "Mage" {
		debug.LogPaths("no file for %s\n", className)
		return "", false
	}
	for _, pool := range modulePools {
		for _, folder := range p.vendorFolders(pool) {
			if candidate := folder + "/" + rest; p.isFile(candidate) {
				debug.LogPaths("%s found in vendor folder %s\n", className, folder)
				return p.abs(candidate), true
			}
		}
	}

	debug.LogPaths("no file for %s\n", className)
	return "", false
}

// ResolvePath resolves className under root without keeping a resolver
func ResolvePath(className, root string) (string, bool) {
	if root == "" {
		return "", false
	}
	return NewPathResolver(root).ResolvePath(className)
}

// vendorFolders lists the immediate subdirectories of pool in name order
func (p *PathResolver) vendorFolders(pool string) []string {
	matches, err := doublestar.Glob(p.fsys, pool+"/*")
	if err != nil {
		debug.LogPaths("cannot list %s: %v\n", pool, err)
		return nil
	}
	sort.Strings(matches)

	folders := matches[:0]
	for _, m := range matches {
		if info, err := fs.Stat(p.fsys, m); err == nil && info.IsDir() {
			folders = append(folders, m)
		}
	}
	return folders
}

func (p *PathResolver) isFile(rel string) bool {
	info, err := fs.Stat(p.fsys, rel)
	return err == nil && !info.IsDir()
}

func (p *PathResolver) abs(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

// classRelPath turns Mage_Catalog_Model_Product into
// Mage/Catalog/Model/Product.php
func classRelPath(className string) string {
	rel := strings.NewReplacer("_", "/", `\`, "/").Replace(strings.TrimPrefix(className, `\`))
	return rel + ".php"
}
