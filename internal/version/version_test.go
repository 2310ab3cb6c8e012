package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("Platform = %q, want %q", info.Platform, want)
	}
}

func TestInfoString(t *testing.T) {
	s := Info{Version: "1.2.3", GitCommit: "abc123", BuildDate: "today", GoVersion: "go1.24", Platform: "linux/arm64"}.String()
	for _, part := range []string{"blinkd 1.2.3", "abc123", "linux/arm64"} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}

func TestFillFromSettings(t *testing.T) {
	tests := []struct {
		name       string
		start      Info
		settings   []debug.BuildSetting
		wantCommit string
		wantDate   string
		wantDirty  bool
	}{
		{
			name:  "vcs stamp fills unknowns",
			start: Info{GitCommit: "unknown", BuildDate: "unknown"},
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2025-01-27T10:30:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
			wantCommit: "0123456789ab",
			wantDate:   "2025-01-27T10:30:00Z",
			wantDirty:  true,
		},
		{
			name:       "ldflags win",
			start:      Info{GitCommit: "abc123", BuildDate: "today"},
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffff"}, {Key: "vcs.time", Value: "x"}},
			wantCommit: "abc123",
			wantDate:   "today",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.start
			info.fillFromSettings(tt.settings)
			if info.GitCommit != tt.wantCommit || info.BuildDate != tt.wantDate || info.Modified != tt.wantDirty {
				t.Errorf("got commit=%q date=%q dirty=%v", info.GitCommit, info.BuildDate, info.Modified)
			}
		})
	}
}

func TestInfoString_Dirty(t *testing.T) {
	s := Info{Version: "1.0", GitCommit: "abc", Modified: true}.String()
	if !strings.Contains(s, "abc-dirty") {
		t.Errorf("String() = %q, want dirty marker", s)
	}
}
