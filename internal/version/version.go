// Package version holds build metadata set through ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitekeeper/internal/version.Version=v1.0.0"
package version

import "fmt"

var Version = "dev"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version with its commit and build time.
func String() string {
	return fmt.Sprintf("sitekeeper %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
