package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/hw"
	"github.com/smazurov/blinkd/internal/led"
)

// commandTimeout bounds how long facade calls wait for the loop.
const commandTimeout = 2 * time.Second

// ErrUnknownLED is returned for names that are not part of the group.
var ErrUnknownLED = errors.New("unknown LED")

// Controller abstracts named LED control. Engine implements it.
type Controller interface {
	// Set controls an LED's state and optional pattern
	// Parameters:
	//   name:    LED name (e.g., "red", "status")
	//   enabled: whether the LED should be on or off
	//   pattern: optional pattern name (e.g., "solid", "blink", "heartbeat");
	//            empty string means plain on/off
	Set(name string, enabled bool, pattern string) error
	// Available returns the LED names
	Available() []string
	// Patterns returns the pattern names
	Patterns() []string
}

var _ Controller = (*Engine)(nil)

// LEDState is a point-in-time view of one LED.
type LEDState struct {
	Name       string    `json:"name"`
	Pin        int       `json:"pin"`
	On         bool      `json:"on"`
	Brightness int       `json:"brightness"`
	Pattern    string    `json:"pattern"`
	Blinking   bool      `json:"blinking"`
	PWM        bool      `json:"pwm"`
	Interval   hw.Millis `json:"interval_ms"`
}

func (e *Engine) lookup(name string) (int, error) {
	i, ok := e.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLED, name)
	}
	return i, nil
}

// call runs fn on the loop with the default timeout.
func (e *Engine) call(fn func(*led.Group) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return e.Do(ctx, fn)
}

// Set implements Controller. A disabled LED is turned off regardless of
// pattern.
func (e *Engine) Set(name string, enabled bool, pattern string) error {
	return e.SetPatternInterval(name, enabled, pattern, 0)
}

// SetPatternInterval is Set with an interval override; 0 keeps the
// pattern's default timing.
func (e *Engine) SetPatternInterval(name string, enabled bool, pattern string, interval hw.Millis) error {
	i, err := e.lookup(name)
	if err != nil {
		return err
	}

	var p led.Pattern
	if pattern != "" {
		if p, err = led.ParsePattern(pattern); err != nil {
			return err
		}
	}

	var state LEDState
	err = e.call(func(g *led.Group) error {
		applyPattern(g.LED(i), enabled, pattern, p, interval)
		state = e.snapshot(i)
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Debug("LED updated", "led", name, "enabled", enabled, "pattern", state.Pattern)
	e.publishState(state, enabled)
	return nil
}

// applyPattern applies Set semantics to u. An empty name means plain
// on/off.
func applyPattern(u *led.Unit, enabled bool, name string, p led.Pattern, interval hw.Millis) {
	switch {
	case !enabled:
		u.Off()
	case name == "":
		u.On()
	case p == led.Custom:
		if interval == 0 {
			interval = led.DefaultInterval
		}
		u.SetCustomPattern(interval)
		unbounded(u)
	case interval > 0:
		u.SetPatternInterval(p, interval)
		unbounded(u)
	default:
		u.SetPattern(p)
		unbounded(u)
	}
}

// unbounded drops a duration left over from an earlier Blink, which the
// unit would otherwise apply to the new pattern.
func unbounded(u *led.Unit) {
	if u.IsBlinking() {
		u.StartBlinkingFor(u.Interval(), 0)
	}
}

// SetBrightness sets the brightness of one LED, clamped to [0,255].
func (e *Engine) SetBrightness(name string, brightness int) error {
	i, err := e.lookup(name)
	if err != nil {
		return err
	}

	var state LEDState
	err = e.call(func(g *led.Group) error {
		g.LED(i).SetBrightness(brightness)
		state = e.snapshot(i)
		return nil
	})
	if err != nil {
		return err
	}
	e.publishState(state, state.On || state.Blinking)
	return nil
}

// Blink blinks one LED at interval for duration ticks; 0 means until
// changed. The running pattern is kept; a solid LED toggles as custom.
func (e *Engine) Blink(name string, interval, duration hw.Millis) error {
	return e.BlinkPattern(name, "", interval, duration)
}

// BlinkPattern starts pattern on one LED and stops it after duration ticks.
// interval overrides the pattern's default when non-zero. With an empty
// pattern it behaves like Blink. A bounded "solid" lights the LED for
// duration and then turns it off.
func (e *Engine) BlinkPattern(name, pattern string, interval, duration hw.Millis) error {
	i, err := e.lookup(name)
	if err != nil {
		return err
	}

	var p led.Pattern
	if pattern != "" {
		if p, err = led.ParsePattern(pattern); err != nil {
			return err
		}
	}

	var state LEDState
	err = e.call(func(g *led.Group) error {
		u := g.LED(i)
		if pattern == "" {
			if interval == 0 {
				interval = led.DefaultInterval
			}
			if u.Pattern() == led.Solid {
				// Solid ticks are inert, give the blink something to toggle.
				u.SetCustomPattern(interval)
			}
			u.StartBlinkingFor(interval, duration)
		} else {
			applyPattern(u, true, pattern, p, interval)
			u.StartBlinkingFor(u.Interval(), duration)
		}
		state = e.snapshot(i)
		return nil
	})
	if err != nil {
		return err
	}
	e.publishState(state, true)
	return nil
}

// SetAll applies Set semantics to every LED.
func (e *Engine) SetAll(enabled bool, pattern string) error {
	for _, name := range e.names {
		if err := e.Set(name, enabled, pattern); err != nil {
			return err
		}
	}
	return nil
}

// SetSequence selects the group animation run every iteration. Switching to
// SequenceNone turns every LED off.
func (e *Engine) SetSequence(seq led.Sequence, interval hw.Millis) error {
	if interval == 0 {
		interval = DefaultSequenceInterval
	}

	err := e.call(func(g *led.Group) error {
		if seq == e.seq && interval == e.seqInterval {
			return nil
		}
		if seq == led.SequenceNone || seq != e.seq {
			g.AllOff()
		}
		g.ResetSequences()
		e.seq = seq
		e.seqInterval = interval
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("Sequence changed", "sequence", seq.String(), "interval_ms", uint32(interval))
	e.bus.Publish(events.SequenceChangedEvent{
		Sequence:   seq.String(),
		IntervalMs: uint32(interval),
		Timestamp:  time.Now().Format(time.RFC3339),
	})
	return nil
}

// Sequence returns the active sequence and its interval.
func (e *Engine) Sequence() (led.Sequence, hw.Millis, error) {
	var (
		seq      led.Sequence
		interval hw.Millis
	)
	err := e.call(func(*led.Group) error {
		seq, interval = e.seq, e.seqInterval
		return nil
	})
	return seq, interval, err
}

// State returns the current state of one LED.
func (e *Engine) State(name string) (LEDState, error) {
	i, err := e.lookup(name)
	if err != nil {
		return LEDState{}, err
	}

	var state LEDState
	err = e.call(func(*led.Group) error {
		state = e.snapshot(i)
		return nil
	})
	return state, err
}

// States returns every LED's state in group order.
func (e *Engine) States() ([]LEDState, error) {
	var states []LEDState
	err := e.call(func(*led.Group) error {
		states = make([]LEDState, len(e.names))
		for i := range e.names {
			states[i] = e.snapshot(i)
		}
		return nil
	})
	return states, err
}

// Available implements Controller.
func (e *Engine) Available() []string {
	return slices.Clone(e.names)
}

// Patterns implements Controller.
func (e *Engine) Patterns() []string {
	return led.PatternNames()
}

func (e *Engine) publishState(s LEDState, enabled bool) {
	e.bus.Publish(events.LEDStateChangedEvent{
		LED:        s.Name,
		Pin:        s.Pin,
		Enabled:    enabled,
		Pattern:    s.Pattern,
		Brightness: s.Brightness,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}
