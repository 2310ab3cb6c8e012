package hw

import "slices"

// DefaultPWMPins are the ESP32 pins commonly routed to the LEDC PWM block.
var DefaultPWMPins = []int{2, 4, 5, 12, 13, 14, 15, 16, 17, 18, 19, 21, 22, 23, 25, 26, 27, 32, 33}

// PWMAllowList is a fixed set of pin ids known to support hardware PWM.
type PWMAllowList struct {
	pins []int
}

// NewPWMAllowList builds an allow-list. An empty list means no PWM pins.
func NewPWMAllowList(pins ...int) PWMAllowList {
	p := slices.Clone(pins)
	slices.Sort(p)
	return PWMAllowList{pins: slices.Compact(p)}
}

// DefaultAllowList returns the allow-list for DefaultPWMPins.
func DefaultAllowList() PWMAllowList {
	return NewPWMAllowList(DefaultPWMPins...)
}

// Contains reports whether pin supports PWM.
func (a PWMAllowList) Contains(pin int) bool {
	_, ok := slices.BinarySearch(a.pins, pin)
	return ok
}

// Pins returns the sorted pin ids.
func (a PWMAllowList) Pins() []int {
	return slices.Clone(a.pins)
}
