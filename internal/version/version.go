// Package version reports build information for the sigclock binary.
package version

import "fmt"

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/connorhough/sigclock/internal/version.Version=v0.1.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns the version followed by the commit and build date
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
