// Package version holds build metadata for cmdsync.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is overridden at build time with -ldflags "-X ...version.Version=...".
var Version = "development"

// Commit is the git commit hash, also set through ldflags.
var Commit = "unknown"

// String returns the version, suffixed with the commit when known.
func String() string {
	if Commit != "unknown" {
		return Version + "+" + Commit
	}
	return Version
}

// UserAgent is sent by HTTP clients.
func UserAgent() string {
	return fmt.Sprintf("cmdsync/%s", String())
}

// ModuleVersion reports the main module version recorded by the Go
// toolchain, used when Version was not set through ldflags.
func ModuleVersion() string {
	if Version != "development" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
