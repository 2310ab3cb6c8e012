package hw

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Pins using the Linux sysfs LED class interface.
// Pin ids are mapped to LED class device names.
type sysfs struct {
	root    string
	leds    map[int]string // pin id -> sysfs name
	allow   PWMAllowList
	logger  *slog.Logger
	onError ErrorFunc

	mu        sync.Mutex
	maxBright map[int]int
}

// newSysfs creates a new sysfs pin driver with board-specific LED mappings.
func newSysfs(root string, leds map[int]string, allow PWMAllowList, logger *slog.Logger, onError ErrorFunc) *sysfs {
	if root == "" {
		root = sysfsLEDPath
	}
	return &sysfs{
		root:      root,
		leds:      leds,
		allow:     allow,
		logger:    logger,
		onError:   onError,
		maxBright: make(map[int]int),
	}
}

func (s *sysfs) ledPath(pin int) (string, error) {
	name, ok := s.leds[pin]
	if !ok {
		return "", fmt.Errorf("pin %d has no LED mapping on this board", pin)
	}
	ledPath := filepath.Join(s.root, name)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return "", fmt.Errorf("LED for pin %d not found at %s", pin, ledPath)
	}
	return ledPath, nil
}

func (s *sysfs) fail(pin int, op string, err error) {
	s.logger.Warn("sysfs LED write failed", "pin", pin, "op", op, "error", err)
	if s.onError != nil {
		s.onError(pin, op, err)
	}
}

// maxBrightness reads and caches max_brightness for a pin's LED.
func (s *sysfs) maxBrightness(pin int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.maxBright[pin]; ok {
		return v, nil
	}

	ledPath, err := s.ledPath(pin)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Join(ledPath, "max_brightness"))
	if err != nil {
		return 0, fmt.Errorf("failed to read max_brightness: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid max_brightness: %w", err)
	}
	s.maxBright[pin] = v
	return v, nil
}

func (s *sysfs) writeBrightness(pin int, value int) error {
	ledPath, err := s.ledPath(pin)
	if err != nil {
		return err
	}
	brightnessPath := filepath.Join(ledPath, "brightness")
	if err := os.WriteFile(brightnessPath, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

// ConfigureOutput detaches any kernel trigger so the LED is under manual control.
func (s *sysfs) ConfigureOutput(pin int) {
	ledPath, err := s.ledPath(pin)
	if err != nil {
		s.fail(pin, "configure", err)
		return
	}
	if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte("none"), 0o644); err != nil {
		s.fail(pin, "configure", fmt.Errorf("failed to set LED trigger to none: %w", err))
	}
}

// WriteDigital writes 0 or max_brightness.
func (s *sysfs) WriteDigital(pin int, level Level) {
	value := 0
	if level {
		maxB, err := s.maxBrightness(pin)
		if err != nil {
			s.fail(pin, "digital", err)
			return
		}
		value = maxB
	}
	if err := s.writeBrightness(pin, value); err != nil {
		s.fail(pin, "digital", err)
	}
}

// WriteAnalog scales duty into [0,max_brightness].
func (s *sysfs) WriteAnalog(pin int, duty uint8) {
	maxB, err := s.maxBrightness(pin)
	if err != nil {
		s.fail(pin, "analog", err)
		return
	}
	if err := s.writeBrightness(pin, int(duty)*maxB/255); err != nil {
		s.fail(pin, "analog", err)
	}
}

// SupportsPWM is true for allow-listed pins whose LED has more than one
// brightness step.
func (s *sysfs) SupportsPWM(pin int) bool {
	if !s.allow.Contains(pin) {
		return false
	}
	maxB, err := s.maxBrightness(pin)
	return err == nil && maxB > 1
}
