package hw

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeLED(t *testing.T, root, name, maxBrightness string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for file, content := range map[string]string{
		"max_brightness": maxBrightness + "\n",
		"brightness":     "0",
		"trigger":        "heartbeat",
	} {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.TrimSpace(string(data))
}

func TestSysfs_Writes(t *testing.T) {
	root := t.TempDir()
	dir := makeLED(t, root, "usr_led", "100")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s := newSysfs(root, map[int]string{2: "usr_led"}, NewPWMAllowList(2), logger, nil)

	s.ConfigureOutput(2)
	if got := readFile(t, filepath.Join(dir, "trigger")); got != "none" {
		t.Errorf("trigger = %q, want none", got)
	}

	s.WriteDigital(2, High)
	if got := readFile(t, filepath.Join(dir, "brightness")); got != "100" {
		t.Errorf("brightness after high = %q, want 100", got)
	}

	s.WriteAnalog(2, 51)
	if got := readFile(t, filepath.Join(dir, "brightness")); got != "20" {
		t.Errorf("brightness after analog 51 = %q, want 20", got)
	}

	s.WriteDigital(2, Low)
	if got := readFile(t, filepath.Join(dir, "brightness")); got != "0" {
		t.Errorf("brightness after low = %q, want 0", got)
	}
}

func TestSysfs_SupportsPWM(t *testing.T) {
	root := t.TempDir()
	makeLED(t, root, "dimmable", "255")
	makeLED(t, root, "binary", "1")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s := newSysfs(root, map[int]string{2: "dimmable", 4: "binary", 6: "dimmable"}, NewPWMAllowList(2, 4), logger, nil)

	if !s.SupportsPWM(2) {
		t.Error("SupportsPWM(2) = false, want true")
	}
	if s.SupportsPWM(4) {
		t.Error("SupportsPWM(4) = true, want false (single brightness step)")
	}
	if s.SupportsPWM(6) {
		t.Error("SupportsPWM(6) = true, want false (not allow-listed)")
	}
}

func TestSysfs_UnmappedPinReportsError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	var failures []string

	s := newSysfs(t.TempDir(), map[int]string{}, DefaultAllowList(), logger, func(_ int, op string, _ error) {
		failures = append(failures, op)
	})

	s.ConfigureOutput(2)
	s.WriteDigital(2, High)
	s.WriteAnalog(2, 10)

	if len(failures) != 3 {
		t.Errorf("failures = %v, want 3 entries", failures)
	}
}
