// Package pathutil converts the absolute class file paths the engine works
// with into paths relative to the Magento root for display.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative returns absPath relative to rootDir. Paths that are already
// relative, lie outside rootDir or cannot be related are returned cleaned
// but otherwise unchanged.
//
//	ToRelative("/srv/shop/app/code/core/Mage/Core/Model/App.php", "/srv/shop") → "app/code/core/Mage/Core/Model/App.php"
//	ToRelative("/usr/share/php/Zend/Db.php", "/srv/shop") → "/usr/share/php/Zend/Db.php"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" || !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	relPath, err := filepath.Rel(filepath.Clean(rootDir), absPath)
	if err != nil {
		// Different volumes on Windows
		return absPath
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}
	return relPath
}

// ToSlashRelative is ToRelative with forward slashes, the form used in
// JSON output
func ToSlashRelative(absPath, rootDir string) string {
	return filepath.ToSlash(ToRelative(absPath, rootDir))
}
