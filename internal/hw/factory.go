package hw

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"periph.io/x/conn/v3/physic"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Backend names accepted by New.
const (
	BackendAuto     = "auto"
	BackendPeriph   = "periph"
	BackendSysfs    = "sysfs"
	BackendNoop     = "noop"
	BackendRecorder = "recorder"
)

// ErrUnknownBackend is returned by New for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown pin backend")

// ErrorFunc receives write failures from a backend.
type ErrorFunc func(pin int, op string, err error)

// Options configures a pin backend.
type Options struct {
	// PWMPins overrides DefaultPWMPins when non-nil.
	PWMPins []int
	// PWMFrequency is the periph PWM carrier; zero means DefaultPWMFrequency.
	PWMFrequency physic.Frequency
	// SysfsLEDs maps pin ids to /sys/class/leds names.
	SysfsLEDs map[int]string
	// SysfsRoot overrides /sys/class/leds.
	SysfsRoot string
	// Clock stamps recorder writes.
	Clock Clock
	// OnError is called for every failed write.
	OnError ErrorFunc
}

func (o Options) allowList() PWMAllowList {
	if o.PWMPins != nil {
		return NewPWMAllowList(o.PWMPins...)
	}
	return DefaultAllowList()
}

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendAuto, BackendPeriph, BackendSysfs, BackendNoop, BackendRecorder}
}

// New creates a pin driver for the named backend. "auto" picks one based
// on board detection and falls back to the no-op driver.
func New(backend string, opts Options, logger *slog.Logger) (Pins, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(backend) {
	case BackendPeriph:
		return newPeriph(opts.PWMFrequency, opts.allowList(), logger, opts.OnError)
	case BackendSysfs:
		return newSysfs(opts.SysfsRoot, opts.SysfsLEDs, opts.allowList(), logger, opts.OnError), nil
	case BackendNoop:
		return newNoop(logger, opts.allowList()), nil
	case BackendRecorder:
		return NewRecorder(opts.Clock, opts.allowList()), nil
	case BackendAuto, "":
		return detect(opts, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// detect chooses a backend from the device tree model.
func detect(opts Options, logger *slog.Logger) Pins {
	boardModel := DetectBoard()
	logger.Info("Detecting board for pin control", "board_model", boardModel)

	switch {
	case strings.Contains(boardModel, "Raspberry Pi"):
		p, err := newPeriph(opts.PWMFrequency, opts.allowList(), logger, opts.OnError)
		if err == nil {
			logger.Info("Detected Raspberry Pi, using periph GPIO driver")
			return p
		}
		logger.Warn("periph host init failed, falling back to no-op", "error", err)

	case strings.Contains(boardModel, "NanoPC-T6"), strings.Contains(boardModel, "Orange Pi"):
		if len(opts.SysfsLEDs) > 0 {
			logger.Info("Detected sysfs LED board, using sysfs driver")
			return newSysfs(opts.SysfsRoot, opts.SysfsLEDs, opts.allowList(), logger, opts.OnError)
		}
		logger.Warn("sysfs board detected but no LED mapping configured")
	}

	logger.Info("No pin support detected, using no-op driver", "board_model", boardModel)
	return newNoop(logger, opts.allowList())
}

// DetectBoard reads the device tree model to identify the board.
func DetectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
