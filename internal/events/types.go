package events

import "github.com/smazurov/blinkd/internal/config"

// Event type constants for kelindar/event.
const (
	TypeLEDStateChanged uint32 = iota + 1
	TypeSequenceChanged
	TypeLayoutReloaded
	TypeLoopStopped
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// LEDStateChangedEvent is published after a command changed an LED.
type LEDStateChangedEvent struct {
	LED        string `json:"led"`
	Pin        int    `json:"pin"`
	Enabled    bool   `json:"enabled"`
	Pattern    string `json:"pattern"`
	Brightness int    `json:"brightness"`
	Timestamp  string `json:"timestamp"`
}

// Type returns the event type identifier for LEDStateChangedEvent.
func (e LEDStateChangedEvent) Type() uint32 { return TypeLEDStateChanged }

// SequenceChangedEvent is published when the group animation changes.
type SequenceChangedEvent struct {
	Sequence   string `json:"sequence"`
	IntervalMs uint32 `json:"interval_ms"`
	Timestamp  string `json:"timestamp"`
}

// Type returns the event type identifier for SequenceChangedEvent.
func (e SequenceChangedEvent) Type() uint32 { return TypeSequenceChanged }

// LayoutReloadedEvent carries a freshly loaded layout file.
type LayoutReloadedEvent struct {
	Path      string        `json:"path"`
	Layout    config.Layout `json:"layout"`
	Timestamp string        `json:"timestamp"`
}

// Type returns the event type identifier for LayoutReloadedEvent.
func (e LayoutReloadedEvent) Type() uint32 { return TypeLayoutReloaded }

// LoopStoppedEvent is published when the control loop exits.
type LoopStoppedEvent struct {
	Reason    string `json:"reason"`
	Ticks     uint64 `json:"ticks"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for LoopStoppedEvent.
func (e LoopStoppedEvent) Type() uint32 { return TypeLoopStopped }
