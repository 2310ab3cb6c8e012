package led

import "github.com/smazurov/blinkd/internal/hw"

// patternState is scratch data owned by the active pattern. Fade uses
// fadeDir/fadeStep; Strobe uses strobeCount/strobeMax; Heartbeat reuses
// strobeCount as its phase counter.
type patternState struct {
	fadeDir     int
	fadeStep    int
	strobeCount int
	strobeMax   int
}

// Unit drives one LED on one pin. It is not safe for concurrent use; all
// calls are expected from the host control loop.
type Unit struct {
	pin   int
	clock hw.Clock
	pins  hw.Pins

	on         bool
	brightness int
	pwm        bool

	blinking   bool
	lastTick   hw.Millis
	interval   hw.Millis
	duration   hw.Millis // 0 = unbounded
	blinkStart hw.Millis
	pattern    Pattern
	scratch    patternState
}

// NewUnit configures pin as an output, drives it low and returns a Unit at
// full brightness. PWM capability is sampled once here.
func NewUnit(pin int, clock hw.Clock, pins hw.Pins) *Unit {
	u := &Unit{
		pin:        pin,
		clock:      clock,
		pins:       pins,
		brightness: MaxBrightness,
		interval:   DefaultInterval,
		pattern:    Solid,
		scratch: patternState{
			fadeDir:   1,
			fadeStep:  DefaultFadeStep,
			strobeMax: DefaultStrobeFlashes,
		},
	}
	pins.ConfigureOutput(pin)
	pins.WriteDigital(pin, hw.Low)
	u.pwm = pins.SupportsPWM(pin)
	return u
}

// Pin returns the pin id.
func (u *Unit) Pin() int { return u.pin }

// PWMCapable reports whether brightness is rendered with PWM.
func (u *Unit) PWMCapable() bool { return u.pwm }

// Pattern returns the active pattern.
func (u *Unit) Pattern() Pattern { return u.pattern }

// Interval returns the current tick interval.
func (u *Unit) Interval() hw.Millis { return u.interval }

// IsBlinking reports whether Update will advance the LED.
func (u *Unit) IsBlinking() bool { return u.blinking }

// IsOn reports the logical output state.
func (u *Unit) IsOn() bool { return u.on }

// Brightness returns the brightness in [0,255].
func (u *Unit) Brightness() int { return u.brightness }

// apply writes the logical state to the pin. Dimmed PWM pins get an analog
// write; everything else a digital one.
func (u *Unit) apply() {
	if u.pwm && u.brightness < MaxBrightness {
		var duty uint8
		if u.on {
			duty = uint8(u.brightness)
		}
		u.pins.WriteAnalog(u.pin, duty)
		return
	}
	u.pins.WriteDigital(u.pin, hw.Level(u.on))
}

// cancel drops any running pattern.
func (u *Unit) cancel() {
	u.blinking = false
	u.pattern = Solid
}

// On cancels any pattern and lights the LED.
func (u *Unit) On() {
	u.cancel()
	u.on = true
	u.apply()
}

// Off cancels any pattern and darkens the LED.
func (u *Unit) Off() {
	u.cancel()
	u.on = false
	u.apply()
}

// Toggle cancels any pattern and inverts the LED.
func (u *Unit) Toggle() {
	u.cancel()
	u.on = !u.on
	u.apply()
}

// SetBrightness clamps v to [0,255] and re-applies the output.
func (u *Unit) SetBrightness(v int) {
	u.brightness = clamp(v, 0, MaxBrightness)
	u.apply()
}

// Dim lowers the brightness by amount.
func (u *Unit) Dim(amount int) {
	u.SetBrightness(u.brightness - clamp(amount, -MaxBrightness, MaxBrightness))
}

// Brighten raises the brightness by amount.
func (u *Unit) Brighten(amount int) {
	u.SetBrightness(u.brightness + clamp(amount, -MaxBrightness, MaxBrightness))
}

// SetPattern starts p with its default timing. Solid is not a running
// pattern: it turns the LED on and stops blinking.
func (u *Unit) SetPattern(p Pattern) {
	now := u.clock.Now()
	u.pattern = p
	u.blinking = true
	u.lastTick = now
	u.blinkStart = now
	u.scratch.strobeCount = 0

	switch p {
	case Solid:
		u.On()
		return
	case Fade:
		u.scratch.fadeDir = 1
	case Strobe:
		u.scratch.strobeMax = DefaultStrobeFlashes
	}
	u.interval = p.Interval()
}

// SetPatternInterval starts p and then overrides its interval.
func (u *Unit) SetPatternInterval(p Pattern, interval hw.Millis) {
	u.SetPattern(p)
	u.interval = interval
}

// SetCustomPattern toggles the LED every interval ticks.
func (u *Unit) SetCustomPattern(interval hw.Millis) {
	u.pattern = Custom
	u.interval = interval
	u.blinking = true
	u.lastTick = u.clock.Now()
}

// StopPattern cancels the pattern and turns the LED off.
func (u *Unit) StopPattern() {
	u.Off()
}

// StartBlinking blinks at interval until stopped. The active pattern is
// left as is and still decides what a tick does.
func (u *Unit) StartBlinking(interval hw.Millis) {
	u.StartBlinkingFor(interval, 0)
}

// StartBlinkingFor is StartBlinking bounded to duration ticks; 0 means
// unbounded.
func (u *Unit) StartBlinkingFor(interval, duration hw.Millis) {
	now := u.clock.Now()
	u.blinking = true
	u.interval = interval
	u.duration = duration
	u.lastTick = now
	u.blinkStart = now
}

// StopBlinking stops blinking and turns the LED off.
func (u *Unit) StopBlinking() {
	u.Off()
}

// Update advances the pattern if its interval has elapsed. It must be
// called frequently from the host loop and never blocks.
func (u *Unit) Update() {
	if !u.blinking {
		return
	}

	now := u.clock.Now()
	if u.duration > 0 && hw.Elapsed(now, u.blinkStart) >= u.duration {
		u.StopPattern()
		return
	}

	u.tick(now)
}
