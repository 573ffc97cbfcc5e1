// Package buildinfo carries the build metadata stamped in with
//
//	-ldflags "-X webterm/internal/buildinfo.Version=... -X ...Commit=... -X ...Date=..."
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier: the version when stamped,
// otherwise the commit, otherwise "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String describes the build for version banners.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Short(), Commit, Date)
}
