// Package magento maps Magento 1 class names to their source files.
package magento

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/magentointel/internal/debug"
)

// CoreMarker is the directory whose presence identifies a Magento root
const CoreMarker = "app/code/core/Mage"

// RootLocator lists the folders open in the host
type RootLocator interface {
	ListOpenRoots() []string
}

// StaticRoots is a fixed list of open folders
type StaticRoots []string

// ListOpenRoots implements RootLocator
func (s StaticRoots) ListOpenRoots() []string {
	return s
}

// IsMagentoRoot reports whether root contains app/code/core/Mage
func IsMagentoRoot(root string) bool {
	if root == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(CoreMarker)))
	return err == nil && info.IsDir()
}

// FindProjectRoot returns the first open root that is a Magento root
func FindProjectRoot(locator RootLocator) (string, bool) {
	if locator == nil {
		return "", false
	}
	for _, root := range locator.ListOpenRoots() {
		if IsMagentoRoot(root) {
			debug.LogPaths("magento root: %s\n", root)
			return root, true
		}
	}
	return "", false
}
