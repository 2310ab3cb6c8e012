package hw

import (
	"slices"
	"sync"
)

// WriteKind identifies a pin primitive.
type WriteKind uint8

const (
	WriteConfigure WriteKind = iota
	WriteDigital
	WriteAnalog
)

func (k WriteKind) String() string {
	switch k {
	case WriteConfigure:
		return "configure"
	case WriteDigital:
		return "digital"
	case WriteAnalog:
		return "analog"
	default:
		return "unknown"
	}
}

// Write is one recorded pin call. Value is 0/1 for digital writes and the
// duty cycle for analog writes.
type Write struct {
	Pin   int
	Kind  WriteKind
	Value int
	At    Millis
}

// Recorder implements Pins in memory and keeps every call.
type Recorder struct {
	mu     sync.Mutex
	clock  Clock
	allow  PWMAllowList
	writes []Write
	output map[int]int
}

// NewRecorder creates a recorder stamping writes with clock (may be nil).
func NewRecorder(clock Clock, allow PWMAllowList) *Recorder {
	return &Recorder{
		clock:  clock,
		allow:  allow,
		output: make(map[int]int),
	}
}

func (r *Recorder) record(w Write) {
	if r.clock != nil {
		w.At = r.clock.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, w)

	switch w.Kind {
	case WriteDigital:
		if w.Value != 0 {
			r.output[w.Pin] = 255
		} else {
			r.output[w.Pin] = 0
		}
	case WriteAnalog:
		r.output[w.Pin] = w.Value
	}
}

// ConfigureOutput implements Pins.
func (r *Recorder) ConfigureOutput(pin int) {
	r.record(Write{Pin: pin, Kind: WriteConfigure})
}

// WriteDigital implements Pins.
func (r *Recorder) WriteDigital(pin int, level Level) {
	v := 0
	if level {
		v = 1
	}
	r.record(Write{Pin: pin, Kind: WriteDigital, Value: v})
}

// WriteAnalog implements Pins.
func (r *Recorder) WriteAnalog(pin int, duty uint8) {
	r.record(Write{Pin: pin, Kind: WriteAnalog, Value: int(duty)})
}

// SupportsPWM implements Pins.
func (r *Recorder) SupportsPWM(pin int) bool {
	return r.allow.Contains(pin)
}

// Writes returns a copy of all recorded calls in order.
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.writes)
}

// WritesFor returns the recorded calls for one pin.
func (r *Recorder) WritesFor(pin int) []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Write
	for _, w := range r.writes {
		if w.Pin == pin {
			out = append(out, w)
		}
	}
	return out
}

// Output returns the effective output of a pin in [0,255]; a digital high
// reads as 255.
func (r *Recorder) Output(pin int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output[pin]
}

// Reset forgets recorded calls but keeps the current outputs.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = nil
}
