// Package version provides application version and build info.
package version

import (
	"runtime/debug"
)

// Version is the current version of the application.
// It can be overridden by ldflags at build time.
var Version = "dev"

// GetInfo returns a formatted version string including the version and,
// when available, the short commit hash from build info.
func GetInfo() string {
	commit := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				commit = setting.Value
			}
		}
	}
	if commit == "" {
		return Version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + " (" + commit + ")"
}
