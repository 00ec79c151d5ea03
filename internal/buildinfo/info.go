package buildinfo

import "fmt"

// Release builds set these with
// -ldflags "-X github.com/cleared-dev/tradeimport/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
