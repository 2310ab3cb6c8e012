// Package status applies layout files to the running LEDs.
package status

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/blinkd/internal/config"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/hw"
	"github.com/smazurov/blinkd/internal/led"
)

// Controller is the LED control surface the manager needs.
type Controller interface {
	SetPatternInterval(name string, enabled bool, pattern string, interval hw.Millis) error
	SetBrightness(name string, brightness int) error
	BlinkPattern(name, pattern string, interval, duration hw.Millis) error
}

// SequenceSetter selects the group animation.
type SequenceSetter interface {
	SetSequence(seq led.Sequence, interval hw.Millis) error
}

// Manager subscribes to layout reloads and applies them.
type Manager struct {
	controller  Controller
	sequencer   SequenceSetter
	eventBus    *events.Bus
	unsubscribe []func()
	logger      *slog.Logger

	mu      sync.Mutex
	applied int
	lastErr error
	stopped bool
}

// NewManager creates a manager that drives controller and sequencer.
func NewManager(controller Controller, sequencer SequenceSetter, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		sequencer:  sequencer,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start begins listening for layout reloads.
func (m *Manager) Start() {
	m.unsubscribe = append(m.unsubscribe,
		m.eventBus.Subscribe(func(e events.LayoutReloadedEvent) {
			m.handleEvent(e)
		}),
		m.eventBus.Subscribe(func(e events.LoopStoppedEvent) {
			m.mu.Lock()
			m.stopped = true
			m.mu.Unlock()
			m.logger.Info("Control loop stopped, ignoring further layouts", "reason", e.Reason)
		}),
	)
	m.logger.Info("Status manager started")
}

// Stop unsubscribes from events.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
	m.logger.Info("Status manager stopped")
}

func (m *Manager) handleEvent(event events.LayoutReloadedEvent) {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		m.logger.Debug("Layout ignored, control loop stopped", "path", event.Path)
		return
	}

	m.logger.Debug("Layout reloaded", "path", event.Path, "leds", len(event.Layout.LEDs))
	if err := m.Apply(event.Layout); err != nil {
		m.logger.Warn("Layout applied with errors", "path", event.Path, "error", err)
	}
}

// Apply sets the sequence and then every LED entry. A failing entry is
// logged and skipped; all failures are joined into the returned error.
func (m *Manager) Apply(layout config.Layout) error {
	var errs []error

	seq, err := led.ParseSequence(layout.Sequence)
	if err != nil {
		errs = append(errs, err)
	} else if err := m.sequencer.SetSequence(seq, hw.Millis(layout.SequenceIntervalMs)); err != nil {
		errs = append(errs, fmt.Errorf("sequence %q: %w", layout.Sequence, err))
	}

	for _, entry := range layout.LEDs {
		if err := m.applyLED(entry); err != nil {
			m.logger.Warn("Failed to apply LED layout", "led", entry.Name, "error", err)
			errs = append(errs, fmt.Errorf("led %q: %w", entry.Name, err))
		}
	}

	err = errors.Join(errs...)
	m.mu.Lock()
	m.applied++
	m.lastErr = err
	m.mu.Unlock()
	return err
}

func (m *Manager) applyLED(entry config.LayoutLED) error {
	// Brightness first so the pattern renders at the right level.
	if entry.Brightness != nil {
		if err := m.controller.SetBrightness(entry.Name, *entry.Brightness); err != nil {
			return err
		}
	}

	interval := hw.Millis(entry.IntervalMs)
	if entry.DurationMs > 0 && entry.IsEnabled() {
		return m.controller.BlinkPattern(entry.Name, entry.Pattern, interval, hw.Millis(entry.DurationMs))
	}
	return m.controller.SetPatternInterval(entry.Name, entry.IsEnabled(), entry.Pattern, interval)
}

// Applied returns how many layouts were applied and the last result.
func (m *Manager) Applied() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied, m.lastErr
}
