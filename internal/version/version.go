package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/smazurov/blinkd/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns version and build information. Values not injected at link
// time fall back to the VCS stamp the go tool embeds in the binary.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fillFromSettings(bi.Settings)
	}
	return info
}

func (i *Info) fillFromSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "unknown" {
				i.GitCommit = s.Value
				if len(i.GitCommit) > 12 {
					i.GitCommit = i.GitCommit[:12]
				}
			}
		case "vcs.time":
			if i.BuildDate == "unknown" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
}

// String returns the application version string.
func String() string {
	return Version
}

// String formats the build metadata on one line.
func (i Info) String() string {
	commit := i.GitCommit
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("blinkd %s (commit %s, built %s, %s %s)",
		i.Version, commit, i.BuildDate, i.GoVersion, i.Platform)
}
