package led

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/blinkd/internal/hw"
)

// Pattern selects how a Unit behaves on each update tick.
type Pattern uint8

const (
	Solid Pattern = iota
	SlowBlink
	FastBlink
	Heartbeat
	Fade
	Strobe
	Custom
)

// Default timings in clock ticks.
const (
	SlowBlinkInterval hw.Millis = 1000
	FastBlinkInterval hw.Millis = 200
	HeartbeatBeat     hw.Millis = 100
	HeartbeatPause    hw.Millis = 800
	FadeInterval      hw.Millis = 50
	StrobeFlash       hw.Millis = 50
	StrobePause       hw.Millis = 1000
	DefaultInterval   hw.Millis = 500

	DefaultFadeStep      = 5
	DefaultStrobeFlashes = 5
	MaxBrightness        = 255
)

// ErrUnknownPattern is returned when a pattern name cannot be parsed.
var ErrUnknownPattern = errors.New("unknown LED pattern")

var patternNames = [...]string{
	Solid:     "solid",
	SlowBlink: "slow_blink",
	FastBlink: "fast_blink",
	Heartbeat: "heartbeat",
	Fade:      "fade",
	Strobe:    "strobe",
	Custom:    "custom",
}

func (p Pattern) String() string {
	if int(p) < len(patternNames) {
		return patternNames[p]
	}
	return fmt.Sprintf("pattern(%d)", uint8(p))
}

// ParsePattern resolves a pattern name. Dashes and case are ignored, and
// "blink" is accepted as an alias for slow_blink.
func ParsePattern(name string) (Pattern, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if n == "blink" {
		return SlowBlink, nil
	}
	for p, pn := range patternNames {
		if pn == n {
			return Pattern(p), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
}

// PatternNames returns the names of all patterns in tag order.
func PatternNames() []string {
	return append([]string(nil), patternNames[:]...)
}

// Interval is the step interval SetPattern assigns for p.
func (p Pattern) Interval() hw.Millis {
	switch p {
	case SlowBlink:
		return SlowBlinkInterval
	case FastBlink:
		return FastBlinkInterval
	case Heartbeat:
		return HeartbeatBeat
	case Fade:
		return FadeInterval
	case Strobe:
		return StrobeFlash
	default:
		return DefaultInterval
	}
}
