package status

import (
	"context"
	"testing"
	"time"

	"github.com/smazurov/blinkd/internal/config"
	"github.com/smazurov/blinkd/internal/engine"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/hw"
	"github.com/smazurov/blinkd/internal/led"
)

// runEngine starts a real control loop on a manual clock.
func runEngine(t *testing.T) (*engine.Engine, *hw.ManualClock) {
	t.Helper()
	clock := hw.NewManualClock(1000)
	group := led.NewGroup(clock, hw.NewRecorder(clock, hw.DefaultAllowList()), 2, 4)
	eng, err := engine.New(group, clock, events.New(), engine.Options{
		PollInterval: time.Millisecond,
		Names:        []string{"red", "green"},
	}, newTestLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-eng.Done()
	})
	return eng, clock
}

func waitFor(t *testing.T, eng *engine.Engine, name string, cond func(engine.LEDState) bool) engine.LEDState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var s engine.LEDState
	for time.Now().Before(deadline) {
		s, _ = eng.State(name)
		if cond(s) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s never reached the expected state, last %+v", name, s)
	return s
}

func TestApply_BoundedEntryKeepsPattern(t *testing.T) {
	eng, clock := runEngine(t)
	mgr := NewManager(eng, eng, events.New(), newTestLogger())

	err := mgr.Apply(config.Layout{LEDs: []config.LayoutLED{
		{Name: "red", Pattern: "strobe", DurationMs: 5000},
		{Name: "green", Pattern: "solid", DurationMs: 300},
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	red, _ := eng.State("red")
	if red.Pattern != "strobe" || !red.Blinking || red.Interval != led.StrobeFlash {
		t.Errorf("red = %+v, want strobe blinking at %dms", red, led.StrobeFlash)
	}
	green, _ := eng.State("green")
	if green.Pattern != "solid" || !green.On {
		t.Errorf("green = %+v, want solid and lit", green)
	}

	clock.Advance(400)
	waitFor(t, eng, "green", func(s engine.LEDState) bool { return !s.On && !s.Blinking })
	if red, _ = eng.State("red"); red.Pattern != "strobe" {
		t.Errorf("red stopped early: %+v", red)
	}

	clock.Advance(5000)
	waitFor(t, eng, "red", func(s engine.LEDState) bool { return !s.Blinking && !s.On })
}

func TestApply_BoundedEntryWithoutPatternBlinks(t *testing.T) {
	eng, _ := runEngine(t)
	mgr := NewManager(eng, eng, events.New(), newTestLogger())

	if err := mgr.Apply(config.Layout{LEDs: []config.LayoutLED{{Name: "red", DurationMs: 1000}}}); err != nil {
		t.Fatal(err)
	}
	s, _ := eng.State("red")
	if s.Pattern != "custom" || s.Interval != led.DefaultInterval || !s.Blinking {
		t.Errorf("state = %+v, want custom at default interval", s)
	}
}
