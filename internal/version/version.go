// Package version reports the build identity shown in /status and the bot's
// status command.
package version

import (
	"runtime/debug"
)

// Set at build time via -ldflags "-X .../internal/version.Version=v1.2.3".
var (
	Version    = "dev"
	CommitHash = ""
)

// GetInfo renders "Version (abcdef1)" with the short commit hash, falling
// back to the revision recorded by the Go toolchain when no ldflags were
// passed. A dirty working tree is marked.
func GetInfo() string {
	hash := CommitHash
	dirty := false
	if hash == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					hash = setting.Value
				case "vcs.modified":
					dirty = setting.Value == "true"
				}
			}
		}
	}
	if hash == "" {
		return Version
	}
	if len(hash) > 7 {
		hash = hash[:7]
	}
	if dirty {
		hash += "-dirty"
	}
	return Version + " (" + hash + ")"
}
