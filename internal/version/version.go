// Package version exposes build identification set via -ldflags.
package version

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the version with its commit, e.g. "dev (unknown)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitSHA)
}
