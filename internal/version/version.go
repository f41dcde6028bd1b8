// Package version carries build metadata, set at link time with
//
//	-ldflags "-X github.com/banshee-data/pcdkit/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the metadata for `pcdtool version` and the viewer's
// /api/version endpoint.
func String() string {
	return fmt.Sprintf("pcdkit %s (%s, built %s)", Version, GitSHA, BuildTime)
}
