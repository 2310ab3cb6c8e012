package led

import "github.com/smazurov/blinkd/internal/hw"

// tickHandlers maps a pattern tag to its per-tick step. Tags without a
// handler (Solid and anything out of range) do nothing on a due tick.
var tickHandlers = [...]func(*Unit){
	SlowBlink: (*Unit).stepToggle,
	FastBlink: (*Unit).stepToggle,
	Heartbeat: (*Unit).stepHeartbeat,
	Fade:      (*Unit).stepFade,
	Strobe:    (*Unit).stepStrobe,
	Custom:    (*Unit).stepToggle,
}

// tick runs the pattern step once the interval has elapsed since the
// previous step.
func (u *Unit) tick(now hw.Millis) {
	if hw.Elapsed(now, u.lastTick) < u.interval {
		return
	}
	u.lastTick = now

	if int(u.pattern) >= len(tickHandlers) {
		return
	}
	if step := tickHandlers[u.pattern]; step != nil {
		step(u)
	}
}

// flip inverts the output without cancelling the pattern.
func (u *Unit) flip() {
	u.on = !u.on
	u.apply()
}

// forceOff darkens the output without cancelling the pattern.
func (u *Unit) forceOff() {
	u.on = false
	u.apply()
}

func (u *Unit) stepToggle() {
	u.flip()
}

// stepHeartbeat gives two beats HeartbeatBeat apart, then rests dark for
// HeartbeatPause.
func (u *Unit) stepHeartbeat() {
	s := &u.scratch
	if s.strobeCount < 2 {
		u.flip()
		s.strobeCount++
		u.interval = HeartbeatBeat
		return
	}
	s.strobeCount = 0
	u.interval = HeartbeatPause
	u.forceOff()
}

// stepFade ramps brightness by fadeStep, bouncing at 0 and 255. Pins
// without PWM blink instead.
func (u *Unit) stepFade() {
	if !u.pwm {
		u.flip()
		return
	}

	s := &u.scratch
	u.brightness += s.fadeDir * s.fadeStep
	if u.brightness >= MaxBrightness {
		u.brightness = MaxBrightness
		s.fadeDir = -1
	} else if u.brightness <= 0 {
		u.brightness = 0
		s.fadeDir = 1
	}
	u.on = true
	u.apply()
}

// stepStrobe toggles strobeMax times StrobeFlash apart, then rests dark
// for StrobePause.
func (u *Unit) stepStrobe() {
	s := &u.scratch
	if s.strobeCount < s.strobeMax {
		u.flip()
		s.strobeCount++
		u.interval = StrobeFlash
		return
	}
	s.strobeCount = 0
	u.interval = StrobePause
	u.forceOff()
}
