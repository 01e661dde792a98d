package app

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, overridden with
// -ldflags "-X github.com/heartmarshall/json-auditor/internal/app.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// BuildVersion formats the build metadata for the startup log. A missing
// commit is taken from the VCS stamp the toolchain embeds.
func BuildVersion() string {
	commit, built := Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value
			case s.Key == "vcs.time" && built == "":
				built = s.Value
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, commit, built)
}
