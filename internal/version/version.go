// Package version reports the MagentoIntel release and a fingerprint of the
// running build.
package version

import (
	"crypto/sha256"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
)

const (
	Name    = "MagentoIntel"
	Version = "0.1.0"

	// TokenFormat is bumped whenever the normalized token layout stored in
	// the persistent cache changes
	TokenFormat = 1
)

// String returns the product name and version, plus the VCS revision when
// the binary was built from a checkout
func String() string {
	if rev := revision(); rev != "" {
		return Name + " " + Version + " (" + rev + ")"
	}
	return Name + " " + Version
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	rev, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "+dirty"
	}
	return rev
}

var (
	buildID     string
	buildIDOnce sync.Once
)

// BuildID fingerprints the token format and the binary. Cached token streams
// live in a directory named after it, so another build never reads them.
func BuildID() string {
	buildIDOnce.Do(func() {
		buildID = computeBuildID()
	})
	return buildID
}

func computeBuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version + "-t" + strconv.Itoa(TokenFormat)
	}

	h := sha256.New()
	fmt.Fprintf(h, "t%d\x00%s\x00%s\x00%s", TokenFormat, info.GoVersion, info.Main.Path, info.Main.Version)
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" || s.Key == "vcs.modified" {
			fmt.Fprintf(h, "\x00%s=%s", s.Key, s.Value)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
