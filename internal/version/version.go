// Package version holds the TaskPilot build identity, stamped with
// -ldflags "-X github.com/GoCodeAlone/taskpilot/internal/version.Version=...".
package version

import "fmt"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String formats the build identity for banners and the version command.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}
