package led

import "github.com/smazurov/blinkd/internal/hw"

type chaseState struct {
	last  hw.Millis
	index int
}

type waveState struct {
	last  hw.Millis
	index int
	dir   int
}

type alternatingState struct {
	last  hw.Millis
	phase bool
}

// Group owns a fixed set of Units and runs multi-LED animations over them.
// Each animation keeps its own timer and position, so independent Groups
// never interfere.
type Group struct {
	clock hw.Clock
	units []*Unit

	chase chaseState
	wave  waveState
	alt   alternatingState
}

// NewGroup creates one Unit per pin id, in order. It panics when no pins
// are given.
func NewGroup(clock hw.Clock, pins hw.Pins, pinIDs ...int) *Group {
	if len(pinIDs) == 0 {
		panic("led: NewGroup requires at least one pin")
	}
	g := &Group{
		clock: clock,
		units: make([]*Unit, len(pinIDs)),
	}
	for i, id := range pinIDs {
		g.units[i] = NewUnit(id, clock, pins)
	}
	g.ResetSequences()
	return g
}

// Len returns the number of LEDs.
func (g *Group) Len() int { return len(g.units) }

// LED returns the unit at index, clamped into [0, Len()-1].
func (g *Group) LED(index int) *Unit {
	return g.units[clamp(index, 0, len(g.units)-1)]
}

// AllOn turns every LED on.
func (g *Group) AllOn() {
	for _, u := range g.units {
		u.On()
	}
}

// AllOff turns every LED off.
func (g *Group) AllOff() {
	for _, u := range g.units {
		u.Off()
	}
}

// AllSetBrightness sets the same brightness on every LED.
func (g *Group) AllSetBrightness(v int) {
	for _, u := range g.units {
		u.SetBrightness(v)
	}
}

// AllSetPattern starts the same pattern on every LED.
func (g *Group) AllSetPattern(p Pattern) {
	for _, u := range g.units {
		u.SetPattern(p)
	}
}

// ResetSequences rewinds chase, wave and alternating to their initial
// position and timer.
func (g *Group) ResetSequences() {
	g.chase = chaseState{}
	g.wave = waveState{dir: 1}
	g.alt = alternatingState{}
}

// due reports whether interval has elapsed since *last and re-arms it.
func (g *Group) due(last *hw.Millis, interval hw.Millis) bool {
	now := g.clock.Now()
	if hw.Elapsed(now, *last) < interval {
		return false
	}
	*last = now
	return true
}

// Chase lights one LED at a time, advancing circularly every interval.
func (g *Group) Chase(interval hw.Millis) {
	if !g.due(&g.chase.last, interval) {
		return
	}
	g.AllOff()
	g.LED(g.chase.index).On()
	g.chase.index = (g.chase.index + 1) % len(g.units)
}

// Wave lights one LED at a time, bouncing between the ends.
func (g *Group) Wave(interval hw.Millis) {
	if !g.due(&g.wave.last, interval) {
		return
	}
	g.AllOff()
	g.LED(g.wave.index).On()

	g.wave.index += g.wave.dir
	if g.wave.index >= len(g.units)-1 {
		g.wave.dir = -1
	} else if g.wave.index <= 0 {
		g.wave.dir = 1
	}
}

// Alternating blinks even and odd LEDs in opposition.
func (g *Group) Alternating(interval hw.Millis) {
	if !g.due(&g.alt.last, interval) {
		return
	}
	g.alt.phase = !g.alt.phase
	for i, u := range g.units {
		if (i%2 == 0) == g.alt.phase {
			u.On()
		} else {
			u.Off()
		}
	}
}

// RunSequence runs one step of seq. SequenceNone does nothing.
func (g *Group) RunSequence(seq Sequence, interval hw.Millis) {
	switch seq {
	case SequenceChase:
		g.Chase(interval)
	case SequenceWave:
		g.Wave(interval)
	case SequenceAlternating:
		g.Alternating(interval)
	}
}

// Update advances every LED's pattern in index order.
func (g *Group) Update() {
	for _, u := range g.units {
		u.Update()
	}
}
