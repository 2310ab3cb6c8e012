package led

import (
	"math"
	"reflect"
	"testing"

	"github.com/smazurov/blinkd/internal/hw"
)

const (
	pwmPin   = 2 // in the default allow-list
	plainPin = 3 // not PWM capable
)

func newTestUnit(t *testing.T, pin int, start hw.Millis) (*Unit, *hw.ManualClock, *hw.Recorder) {
	t.Helper()
	clock := hw.NewManualClock(start)
	rec := hw.NewRecorder(clock, hw.DefaultAllowList())
	u := NewUnit(pin, clock, rec)
	rec.Reset()
	return u, clock, rec
}

// runUntil calls Update once per tick up to and including end.
func runUntil(u *Unit, clock *hw.ManualClock, end hw.Millis) {
	for clock.Now() != end {
		clock.Advance(1)
		u.Update()
	}
}

type sample struct {
	At    hw.Millis
	Value int
}

func samples(writes []hw.Write) []sample {
	out := make([]sample, 0, len(writes))
	for _, w := range writes {
		out = append(out, sample{At: w.At, Value: w.Value})
	}
	return out
}

func TestNewUnit(t *testing.T) {
	clock := hw.NewManualClock(0)
	rec := hw.NewRecorder(clock, hw.DefaultAllowList())

	u := NewUnit(pwmPin, clock, rec)

	writes := rec.Writes()
	if len(writes) != 2 {
		t.Fatalf("construction writes = %v, want configure + low", writes)
	}
	if writes[0].Kind != hw.WriteConfigure || writes[1].Kind != hw.WriteDigital || writes[1].Value != 0 {
		t.Errorf("construction writes = %v, want configure then digital low", writes)
	}
	if u.Brightness() != 255 {
		t.Errorf("Brightness() = %d, want 255", u.Brightness())
	}
	if u.IsOn() || u.IsBlinking() || u.Pattern() != Solid {
		t.Error("new unit should be off, not blinking, pattern solid")
	}
	if !u.PWMCapable() {
		t.Error("PWMCapable() = false for allow-listed pin")
	}

	plain := NewUnit(plainPin, clock, rec)
	if plain.PWMCapable() {
		t.Error("PWMCapable() = true for pin outside the allow-list")
	}
}

func TestUnit_SetBrightnessClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{128, 128},
		{255, 255},
		{300, 255},
		{math.MinInt, 0},
		{math.MaxInt, 255},
	}

	for _, tt := range tests {
		u, _, _ := newTestUnit(t, pwmPin, 0)
		u.SetBrightness(tt.in)
		if got := u.Brightness(); got != tt.want {
			t.Errorf("SetBrightness(%d) -> Brightness() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUnit_DimAndBrighten(t *testing.T) {
	u, _, _ := newTestUnit(t, pwmPin, 0)

	u.Dim(100)
	if u.Brightness() != 155 {
		t.Errorf("Dim(100) -> %d, want 155", u.Brightness())
	}
	u.Dim(math.MaxInt)
	if u.Brightness() != 0 {
		t.Errorf("Dim(MaxInt) -> %d, want 0", u.Brightness())
	}
	u.Brighten(40)
	if u.Brightness() != 40 {
		t.Errorf("Brighten(40) -> %d, want 40", u.Brightness())
	}
	u.Brighten(math.MaxInt)
	if u.Brightness() != 255 {
		t.Errorf("Brighten(MaxInt) -> %d, want 255", u.Brightness())
	}
}

func TestUnit_BrightnessAwareWrites(t *testing.T) {
	t.Run("dimmed PWM pin writes analog", func(t *testing.T) {
		u, _, rec := newTestUnit(t, pwmPin, 0)
		u.SetBrightness(100)
		u.On()
		if got := rec.Output(pwmPin); got != 100 {
			t.Errorf("output after On() = %d, want 100", got)
		}
		u.Off()
		last := rec.Writes()[len(rec.Writes())-1]
		if last.Kind != hw.WriteAnalog || last.Value != 0 {
			t.Errorf("Off() wrote %+v, want analog 0", last)
		}
	})

	t.Run("full brightness PWM pin writes digital", func(t *testing.T) {
		u, _, rec := newTestUnit(t, pwmPin, 0)
		u.On()
		last := rec.Writes()[len(rec.Writes())-1]
		if last.Kind != hw.WriteDigital || last.Value != 1 {
			t.Errorf("On() wrote %+v, want digital high", last)
		}
	})

	t.Run("plain pin ignores brightness", func(t *testing.T) {
		u, _, rec := newTestUnit(t, plainPin, 0)
		u.SetBrightness(10)
		u.On()
		for _, w := range rec.Writes() {
			if w.Kind == hw.WriteAnalog {
				t.Fatalf("plain pin received analog write %+v", w)
			}
		}
		if rec.Output(plainPin) != 255 {
			t.Errorf("output = %d, want digital high", rec.Output(plainPin))
		}
	})

	t.Run("brightness change re-applies while on", func(t *testing.T) {
		u, _, rec := newTestUnit(t, pwmPin, 0)
		u.On()
		u.SetBrightness(42)
		if rec.Output(pwmPin) != 42 {
			t.Errorf("output = %d, want 42", rec.Output(pwmPin))
		}
	})
}

func TestUnit_ImperativeCallsCancelPattern(t *testing.T) {
	calls := map[string]func(*Unit){
		"On":     (*Unit).On,
		"Off":    (*Unit).Off,
		"Toggle": (*Unit).Toggle,
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			u, _, _ := newTestUnit(t, pwmPin, 0)
			u.SetPattern(Strobe)
			if !u.IsBlinking() {
				t.Fatal("SetPattern(Strobe) should start blinking")
			}

			call(u)

			if u.IsBlinking() {
				t.Errorf("%s() left IsBlinking() = true", name)
			}
			if u.Pattern() != Solid {
				t.Errorf("%s() left Pattern() = %v, want solid", name, u.Pattern())
			}
		})
	}
}

func TestUnit_Toggle(t *testing.T) {
	u, _, _ := newTestUnit(t, plainPin, 0)
	u.Toggle()
	if !u.IsOn() {
		t.Error("Toggle() from off should turn on")
	}
	u.Toggle()
	if u.IsOn() {
		t.Error("Toggle() from on should turn off")
	}
}

func TestUnit_SetPatternDefaults(t *testing.T) {
	tests := []struct {
		pattern  Pattern
		interval hw.Millis
	}{
		{SlowBlink, 1000},
		{FastBlink, 200},
		{Heartbeat, 100},
		{Fade, 50},
		{Strobe, 50},
		{Custom, 500},
		{Pattern(42), 500},
	}

	for _, tt := range tests {
		t.Run(tt.pattern.String(), func(t *testing.T) {
			u, _, _ := newTestUnit(t, pwmPin, 0)
			u.SetPattern(tt.pattern)

			if u.Interval() != tt.interval {
				t.Errorf("Interval() = %d, want %d", u.Interval(), tt.interval)
			}
			if !u.IsBlinking() {
				t.Error("IsBlinking() = false, want true")
			}
			if u.Pattern() != tt.pattern {
				t.Errorf("Pattern() = %v, want %v", u.Pattern(), tt.pattern)
			}
		})
	}
}

func TestUnit_SetPatternSolid(t *testing.T) {
	u, _, rec := newTestUnit(t, plainPin, 0)
	u.SetPattern(FastBlink)
	u.SetPattern(Solid)

	if u.IsBlinking() {
		t.Error("SetPattern(Solid) should stop blinking")
	}
	if !u.IsOn() || rec.Output(plainPin) != 255 {
		t.Error("SetPattern(Solid) should turn the LED on")
	}
	if u.Interval() != FastBlinkInterval {
		t.Errorf("SetPattern(Solid) changed interval to %d", u.Interval())
	}
}

func TestUnit_SetPatternInterval(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.SetPatternInterval(SlowBlink, 30)

	if u.Interval() != 30 {
		t.Fatalf("Interval() = %d, want 30", u.Interval())
	}

	runUntil(u, clock, 90)
	got := samples(rec.Writes())
	want := []sample{{30, 1}, {60, 0}, {90, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}

func TestUnit_FadeRamp(t *testing.T) {
	u, clock, _ := newTestUnit(t, pwmPin, 0)
	u.SetPattern(Fade)

	if u.scratch.fadeDir != 1 {
		t.Fatalf("fade direction = %d, want +1", u.scratch.fadeDir)
	}

	clock.Advance(FadeInterval)
	u.Update()
	if u.Brightness() != 255 || u.scratch.fadeDir != -1 {
		t.Fatalf("after first step brightness=%d dir=%d, want 255/-1", u.Brightness(), u.scratch.fadeDir)
	}
	if !u.IsOn() {
		t.Error("fade should force the LED on")
	}

	for want := 250; want >= 0; want -= DefaultFadeStep {
		clock.Advance(FadeInterval)
		u.Update()
		if u.Brightness() != want {
			t.Fatalf("brightness = %d, want %d", u.Brightness(), want)
		}
	}
	if u.scratch.fadeDir != 1 {
		t.Errorf("fade direction at 0 = %d, want +1", u.scratch.fadeDir)
	}

	clock.Advance(FadeInterval)
	u.Update()
	if u.Brightness() != 5 {
		t.Errorf("brightness after bounce = %d, want 5", u.Brightness())
	}
}

func TestUnit_FadeWithoutPWMBlinks(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.SetPattern(Fade)

	runUntil(u, clock, 150)
	got := samples(rec.Writes())
	want := []sample{{50, 1}, {100, 0}, {150, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
	if u.Brightness() != 255 {
		t.Errorf("brightness changed to %d on a plain pin", u.Brightness())
	}
}

func TestUnit_StrobeCycle(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.SetPattern(Strobe)

	runUntil(u, clock, 2000)

	got := samples(rec.Writes())
	want := []sample{
		{50, 1}, {100, 0}, {150, 1}, {200, 0}, {250, 1}, // five flashes
		{300, 0}, // rest
		{1300, 1}, {1350, 0}, {1400, 1}, {1450, 0}, {1500, 1},
		{1550, 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("strobe writes = %v, want %v", got, want)
	}
	if !u.IsBlinking() || u.Pattern() != Strobe {
		t.Error("strobe should keep running")
	}
}

func TestUnit_HeartbeatCycle(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.SetPattern(Heartbeat)

	runUntil(u, clock, 2500)

	got := samples(rec.Writes())
	want := []sample{
		{100, 1}, {200, 0}, {300, 0},
		{1100, 1}, {1200, 0}, {1300, 0},
		{2100, 1}, {2200, 0}, {2300, 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("heartbeat writes = %v, want %v", got, want)
	}
}

func TestUnit_CustomPattern(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.SetPattern(Strobe)
	runUntil(u, clock, 100)

	u.SetCustomPattern(30)
	if u.scratch.strobeCount != 2 {
		t.Errorf("SetCustomPattern reset strobe counter to %d", u.scratch.strobeCount)
	}
	rec.Reset()

	runUntil(u, clock, 160)
	got := samples(rec.Writes())
	want := []sample{{130, 1}, {160, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("custom writes = %v, want %v", got, want)
	}
	if u.Pattern() != Custom || !u.IsBlinking() {
		t.Error("custom pattern should keep running")
	}
}

func TestUnit_BoundedBlinkStops(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.SetPattern(FastBlink)
	u.StartBlinkingFor(100, 350)

	runUntil(u, clock, 349)
	if !u.IsBlinking() {
		t.Fatal("blinking stopped before the duration elapsed")
	}

	clock.Advance(1)
	u.Update()
	if u.IsBlinking() || u.Pattern() != Solid || u.IsOn() {
		t.Fatalf("after duration: blinking=%v pattern=%v on=%v, want stopped/solid/off",
			u.IsBlinking(), u.Pattern(), u.IsOn())
	}

	rec.Reset()
	runUntil(u, clock, 1000)
	if n := len(rec.Writes()); n != 0 {
		t.Errorf("%d writes after auto-stop, want none", n)
	}
}

func TestUnit_StartBlinkingKeepsSolidInert(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.StartBlinking(100)

	runUntil(u, clock, 1000)

	if !u.IsBlinking() {
		t.Error("IsBlinking() = false, want true")
	}
	if n := len(rec.Writes()); n != 0 {
		t.Errorf("solid pattern produced %d writes, want none", n)
	}
}

func TestUnit_StartBlinkingRetimesPattern(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.SetPattern(SlowBlink)
	u.StartBlinking(40)

	runUntil(u, clock, 80)
	got := samples(rec.Writes())
	want := []sample{{40, 1}, {80, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}

func TestUnit_StopPatternAndStopBlinking(t *testing.T) {
	stops := map[string]func(*Unit){
		"StopPattern":  (*Unit).StopPattern,
		"StopBlinking": (*Unit).StopBlinking,
	}

	for name, stop := range stops {
		t.Run(name, func(t *testing.T) {
			u, clock, rec := newTestUnit(t, plainPin, 0)
			u.SetPattern(FastBlink)
			runUntil(u, clock, 200)
			if !u.IsOn() {
				t.Fatal("expected LED on after first toggle")
			}

			stop(u)

			if u.IsOn() || u.IsBlinking() || u.Pattern() != Solid {
				t.Errorf("%s() left on=%v blinking=%v pattern=%v", name, u.IsOn(), u.IsBlinking(), u.Pattern())
			}
			if rec.Output(plainPin) != 0 {
				t.Errorf("%s() did not drive the pin low", name)
			}
		})
	}
}

func TestUnit_UpdateAcrossClockRollover(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, math.MaxUint32-20)
	u.SetPattern(FastBlink)

	clock.Advance(199)
	u.Update()
	if n := len(rec.Writes()); n != 0 {
		t.Fatalf("toggle fired early across rollover (%d writes)", n)
	}

	clock.Advance(1)
	u.Update()
	if !u.IsOn() {
		t.Error("toggle did not fire after the interval across rollover")
	}
}

func TestUnit_UpdateIdleIsNoop(t *testing.T) {
	u, clock, rec := newTestUnit(t, plainPin, 0)
	u.On()
	rec.Reset()

	runUntil(u, clock, 5000)
	if n := len(rec.Writes()); n != 0 {
		t.Errorf("idle Update() made %d writes", n)
	}
}
