package metrics

import "github.com/smazurov/blinkd/internal/hw"

type instrumentedPins struct {
	next hw.Pins
}

// InstrumentPins wraps a backend so every primitive call is counted in
// blinkd_pin_writes_total.
func InstrumentPins(next hw.Pins) hw.Pins {
	return &instrumentedPins{next: next}
}

func (p *instrumentedPins) ConfigureOutput(pin int) {
	RecordPinWrite(pin, hw.WriteConfigure.String())
	p.next.ConfigureOutput(pin)
}

func (p *instrumentedPins) WriteDigital(pin int, level hw.Level) {
	RecordPinWrite(pin, hw.WriteDigital.String())
	p.next.WriteDigital(pin, level)
}

func (p *instrumentedPins) WriteAnalog(pin int, duty uint8) {
	RecordPinWrite(pin, hw.WriteAnalog.String())
	p.next.WriteAnalog(pin, duty)
}

func (p *instrumentedPins) SupportsPWM(pin int) bool {
	return p.next.SupportsPWM(pin)
}
