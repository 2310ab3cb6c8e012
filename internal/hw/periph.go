package hw

import (
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultPWMFrequency is the carrier used for analog writes.
const DefaultPWMFrequency = physic.KiloHertz

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the periph host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// periphPins implements Pins on top of periph.io GPIO.
// Pin ids are resolved as "GPIO<n>" in the periph registry.
type periphPins struct {
	freq    physic.Frequency
	allow   PWMAllowList
	logger  *slog.Logger
	onError ErrorFunc

	mu   sync.Mutex
	pins map[int]gpio.PinIO
}

func newPeriph(freq physic.Frequency, allow PWMAllowList, logger *slog.Logger, onError ErrorFunc) (*periphPins, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	if freq <= 0 {
		freq = DefaultPWMFrequency
	}
	return &periphPins{
		freq:    freq,
		allow:   allow,
		logger:  logger,
		onError: onError,
		pins:    make(map[int]gpio.PinIO),
	}, nil
}

func (p *periphPins) fail(pin int, op string, err error) {
	p.logger.Warn("GPIO write failed", "pin", pin, "op", op, "error", err)
	if p.onError != nil {
		p.onError(pin, op, err)
	}
}

func (p *periphPins) lookup(pin int) (gpio.PinIO, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if io, ok := p.pins[pin]; ok {
		return io, nil
	}
	io := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if io == nil {
		return nil, fmt.Errorf("GPIO%d not found", pin)
	}
	p.pins[pin] = io
	return io, nil
}

// ConfigureOutput drives the pin low, which also puts it in output mode.
func (p *periphPins) ConfigureOutput(pin int) {
	io, err := p.lookup(pin)
	if err != nil {
		p.fail(pin, "configure", err)
		return
	}
	if err := io.Out(gpio.Low); err != nil {
		p.fail(pin, "configure", err)
	}
}

// WriteDigital implements Pins.
func (p *periphPins) WriteDigital(pin int, level Level) {
	io, err := p.lookup(pin)
	if err != nil {
		p.fail(pin, "digital", err)
		return
	}
	if err := io.Out(gpio.Level(level)); err != nil {
		p.fail(pin, "digital", err)
	}
}

// WriteAnalog maps duty [0,255] onto gpio.DutyMax.
func (p *periphPins) WriteAnalog(pin int, duty uint8) {
	io, err := p.lookup(pin)
	if err != nil {
		p.fail(pin, "analog", err)
		return
	}
	d := gpio.Duty(int64(duty) * int64(gpio.DutyMax) / 255)
	if err := io.PWM(d, p.freq); err != nil {
		p.fail(pin, "analog", err)
	}
}

// SupportsPWM implements Pins.
func (p *periphPins) SupportsPWM(pin int) bool {
	return p.allow.Contains(pin)
}
