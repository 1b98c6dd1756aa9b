// Package buildinfo carries version data stamped by the linker:
//
//	-X 'github.com/m3rciful/pixabot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/pixabot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/pixabot/core/buildinfo.Date=2026-10-01T12:00:00Z'
package buildinfo

import "strings"

var (
	// Version is the release tag of the build.
	Version = "dev"
	// Commit is the source revision of the build.
	Commit = "local"
	// Date is the build timestamp in RFC3339 format.
	Date = ""
)

// String renders "version (commit, date)" skipping empty parts.
func String() string {
	var meta []string
	if c := strings.TrimSpace(Commit); c != "" {
		meta = append(meta, c)
	}
	if d := strings.TrimSpace(Date); d != "" {
		meta = append(meta, d)
	}
	if len(meta) == 0 {
		return Version
	}
	return Version + " (" + strings.Join(meta, ", ") + ")"
}
