package hw

// Level is a digital output level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Pins abstracts the pin primitives of the target board.
// Writes never report failure to the caller; backends log and count them.
type Pins interface {
	// ConfigureOutput prepares a pin for output.
	ConfigureOutput(pin int)

	// WriteDigital drives a pin high or low.
	WriteDigital(pin int, level Level)

	// WriteAnalog drives a PWM duty cycle in [0,255].
	WriteAnalog(pin int, duty uint8)

	// SupportsPWM reports whether the pin can output hardware PWM.
	SupportsPWM(pin int) bool
}
