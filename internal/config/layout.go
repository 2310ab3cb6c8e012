package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/blinkd/internal/led"
)

// ErrDuplicateLED is returned when a layout names the same LED twice.
var ErrDuplicateLED = errors.New("duplicate LED in layout")

// Layout is the hot-reloadable description of what each LED should show.
type Layout struct {
	Sequence           string      `toml:"sequence"             json:"sequence"`
	SequenceIntervalMs uint32      `toml:"sequence_interval_ms" json:"sequence_interval_ms"`
	LEDs               []LayoutLED `toml:"leds"                 json:"leds"`
}

// LayoutLED configures a single named LED.
type LayoutLED struct {
	Name       string `toml:"name"        json:"name"`
	Pattern    string `toml:"pattern"     json:"pattern"`
	Enabled    *bool  `toml:"enabled"     json:"enabled,omitempty"`
	IntervalMs uint32 `toml:"interval_ms" json:"interval_ms"`
	DurationMs uint32 `toml:"duration_ms" json:"duration_ms"`
	Brightness *int   `toml:"brightness"  json:"brightness,omitempty"`
}

// IsEnabled reports whether the LED should be lit; unset means enabled.
func (l LayoutLED) IsEnabled() bool {
	return l.Enabled == nil || *l.Enabled
}

// LoadLayout reads and validates a layout file.
func LoadLayout(path string) (Layout, error) {
	var layout Layout

	data, err := os.ReadFile(path)
	if err != nil {
		return layout, fmt.Errorf("failed to read layout: %w", err)
	}
	if err := toml.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("failed to parse layout TOML: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return layout, err
	}
	return layout, nil
}

// Validate checks pattern and sequence names and rejects duplicate LEDs.
func (l Layout) Validate() error {
	if _, err := led.ParseSequence(l.Sequence); err != nil {
		return err
	}

	seen := make(map[string]bool, len(l.LEDs))
	for i, entry := range l.LEDs {
		if entry.Name == "" {
			return fmt.Errorf("leds[%d]: name is required", i)
		}
		if seen[entry.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateLED, entry.Name)
		}
		seen[entry.Name] = true

		if entry.Pattern != "" {
			if _, err := led.ParsePattern(entry.Pattern); err != nil {
				return fmt.Errorf("leds[%d] %q: %w", i, entry.Name, err)
			}
		}
		if entry.Brightness != nil && (*entry.Brightness < 0 || *entry.Brightness > led.MaxBrightness) {
			return fmt.Errorf("leds[%d] %q: brightness %d out of range 0-%d",
				i, entry.Name, *entry.Brightness, led.MaxBrightness)
		}
	}
	return nil
}
