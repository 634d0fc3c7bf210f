// Package version reports build metadata for the version command.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/rbright/rehearse/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line printed by the version command.
func String() string {
	v, commit, date := Version, Commit, Date
	if info, ok := debug.ReadBuildInfo(); ok {
		v, commit, date = fromBuildInfo(info, v, commit, date)
	}
	return fmt.Sprintf("rehearse %s (commit=%s, date=%s, go=%s)", v, commit, date, runtime.Version())
}

// fromBuildInfo fills values left at their defaults from the module and VCS
// data that `go install` embeds.
func fromBuildInfo(info *debug.BuildInfo, v, commit, date string) (string, string, string) {
	if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && commit == "none":
			commit = s.Value[:min(len(s.Value), 12)]
		case s.Key == "vcs.time" && date == "unknown":
			date = s.Value
		}
	}
	return v, commit, date
}
