// Package buildinfo carries version data stamped in with -ldflags.
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("parknet-e2e %s (commit=%s, date=%s)", Version, Commit, Date)
}
