// Package version carries build information injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/MeKo-Tech/quadwarp/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit and build date. Values left at their
// defaults are filled from the module's embedded VCS stamp when available.
func Info() (string, string, string) {
	return fill(Version, GitCommit, BuildDate, debug.ReadBuildInfo)
}

func fill(v, commit, date string, read func() (*debug.BuildInfo, bool)) (string, string, string) {
	bi, ok := read()
	if !ok || bi == nil {
		return v, commit, date
	}
	if v == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" && len(s.Value) >= 7 {
				commit = s.Value[:7]
			}
		case "vcs.time":
			if date == "unknown" {
				date = s.Value
			}
		}
	}
	return v, commit, date
}

// String formats the build information for --version output.
func String() string {
	v, commit, date := Info()
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}
