package hw

import "log/slog"

// noop implements Pins as a no-op for systems without usable GPIO.
type noop struct {
	logger *slog.Logger
	allow  PWMAllowList
}

// newNoop creates a new no-op pin driver.
func newNoop(logger *slog.Logger, allow PWMAllowList) *noop {
	return &noop{
		logger: logger,
		allow:  allow,
	}
}

// ConfigureOutput logs the request but touches no hardware.
func (n *noop) ConfigureOutput(pin int) {
	n.logger.Debug("Pin control not available (no-op)", "pin", pin, "op", "configure")
}

// WriteDigital logs the request but touches no hardware.
func (n *noop) WriteDigital(pin int, level Level) {
	n.logger.Debug("Pin control not available (no-op)", "pin", pin, "level", level.String())
}

// WriteAnalog logs the request but touches no hardware.
func (n *noop) WriteAnalog(pin int, duty uint8) {
	n.logger.Debug("Pin control not available (no-op)", "pin", pin, "duty", duty)
}

// SupportsPWM consults the allow-list so patterns behave as on the target.
func (n *noop) SupportsPWM(pin int) bool {
	return n.allow.Contains(pin)
}
