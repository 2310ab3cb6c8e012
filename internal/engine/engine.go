// Package engine runs the cooperative LED control loop. A single goroutine
// owns the led.Group; everything else talks to it through a command queue.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/hw"
	"github.com/smazurov/blinkd/internal/led"
	"github.com/smazurov/blinkd/internal/metrics"
)

const (
	// DefaultPollInterval paces the loop when Options leave it unset.
	DefaultPollInterval = 10 * time.Millisecond
	// DefaultSequenceInterval is used when a sequence is selected without
	// an interval.
	DefaultSequenceInterval hw.Millis = 200
	// DefaultQueueSize bounds pending commands.
	DefaultQueueSize = 64
)

var (
	// ErrStopped is returned for commands submitted after the loop exited.
	ErrStopped = errors.New("engine stopped")
	// ErrQueueFull is returned by Submit when the command queue is full.
	ErrQueueFull = errors.New("engine command queue full")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("engine already running")
	// ErrDuplicateName is returned when two LEDs share a name.
	ErrDuplicateName = errors.New("duplicate LED name")
)

// Options configures an Engine.
type Options struct {
	PollInterval     time.Duration
	Names            []string // LED names by group index; missing names default to led<i>
	Sequence         led.Sequence
	SequenceInterval hw.Millis
	QueueSize        int
}

type command struct {
	fn     func(*led.Group) error
	result chan error
}

// Engine drives a led.Group. Run owns the group; Step may be used instead
// of Run for virtual-clock simulation but never concurrently with it.
type Engine struct {
	group  *led.Group
	clock  hw.Clock
	bus    *events.Bus
	logger *slog.Logger

	names []string
	index map[string]int
	poll  time.Duration

	commands chan command
	done     chan struct{}
	running  atomic.Bool
	ticks    atomic.Uint64

	// Owned by the loop goroutine.
	seq         led.Sequence
	seqInterval hw.Millis
	reported    []LEDState
}

// New creates an engine for group. LED names come from opts.Names.
func New(group *led.Group, clock hw.Clock, bus *events.Bus, opts Options, logger *slog.Logger) (*Engine, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.SequenceInterval == 0 {
		opts.SequenceInterval = DefaultSequenceInterval
	}

	names := make([]string, group.Len())
	index := make(map[string]int, group.Len())
	for i := range names {
		name := fmt.Sprintf("led%d", i)
		if i < len(opts.Names) && opts.Names[i] != "" {
			name = opts.Names[i]
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		names[i] = name
		index[name] = i
	}
	if len(opts.Names) > len(names) {
		logger.Warn("More LED names than pins, extra names ignored",
			"names", len(opts.Names), "pins", len(names))
	}

	return &Engine{
		group:       group,
		clock:       clock,
		bus:         bus,
		logger:      logger,
		names:       names,
		index:       index,
		poll:        opts.PollInterval,
		commands:    make(chan command, opts.QueueSize),
		done:        make(chan struct{}),
		seq:         opts.Sequence,
		seqInterval: opts.SequenceInterval,
		reported:    make([]LEDState, len(names)),
	}, nil
}

// Run steps the loop every poll interval until ctx is done. On exit all
// LEDs are turned off and pending commands fail with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()

	e.logger.Info("Control loop started",
		"leds", len(e.names),
		"poll_interval", e.poll,
		"sequence", e.seq.String())

	for {
		select {
		case <-ctx.Done():
			e.shutdown(context.Cause(ctx))
			return nil
		case cmd := <-e.commands:
			e.apply(cmd)
		case <-ticker.C:
			e.Step()
		}
	}
}

// Step runs one iteration: pending commands, per-LED patterns, then the
// active sequence.
func (e *Engine) Step() {
	start := time.Now()

	e.drain()
	e.group.Update()
	e.group.RunSequence(e.seq, e.seqInterval)
	e.ticks.Add(1)
	e.report()

	metrics.ObserveTick(time.Since(start))
}

// Ticks returns the number of completed iterations.
func (e *Engine) Ticks() uint64 {
	return e.ticks.Load()
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Submit enqueues fn without waiting for it to run.
func (e *Engine) Submit(fn func(*led.Group)) error {
	cmd := command{fn: func(g *led.Group) error {
		fn(g)
		return nil
	}}

	select {
	case <-e.done:
		return ErrStopped
	default:
	}

	select {
	case e.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do enqueues fn and waits for the loop to run it.
func (e *Engine) Do(ctx context.Context, fn func(*led.Group) error) error {
	cmd := command{fn: fn, result: make(chan error, 1)}

	select {
	case e.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}

	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

func (e *Engine) drain() {
	for {
		select {
		case cmd := <-e.commands:
			e.apply(cmd)
		default:
			return
		}
	}
}

func (e *Engine) apply(cmd command) {
	err := cmd.fn(e.group)
	metrics.RecordCommand(err)
	if err != nil {
		e.logger.Debug("Command failed", "error", err)
	}
	if cmd.result != nil {
		cmd.result <- err
	}
	e.report()
}

// report pushes changed LED states to metrics.
func (e *Engine) report() {
	for i, name := range e.names {
		s := e.snapshot(i)
		if s == e.reported[i] {
			continue
		}
		e.reported[i] = s
		metrics.SetLEDState(name, metrics.LEDState{
			Pattern:    int(e.group.LED(i).Pattern()),
			On:         s.On,
			Brightness: s.Brightness,
		})
	}
}

func (e *Engine) snapshot(i int) LEDState {
	u := e.group.LED(i)
	return LEDState{
		Name:       e.names[i],
		Pin:        u.Pin(),
		On:         u.IsOn(),
		Brightness: u.Brightness(),
		Pattern:    u.Pattern().String(),
		Blinking:   u.IsBlinking(),
		PWM:        u.PWMCapable(),
		Interval:   u.Interval(),
	}
}

func (e *Engine) shutdown(cause error) {
	reason := "stopped"
	if cause != nil && !errors.Is(cause, context.Canceled) {
		reason = cause.Error()
	}

	// Fail anything still queued.
	for drained := false; !drained; {
		select {
		case cmd := <-e.commands:
			if cmd.result != nil {
				cmd.result <- ErrStopped
			}
		default:
			drained = true
		}
	}

	e.group.AllOff()
	e.report()
	close(e.done)

	ticks := e.Ticks()
	e.logger.Info("Control loop stopped", "reason", reason, "ticks", ticks)
	e.bus.Publish(events.LoopStoppedEvent{
		Reason:    reason,
		Ticks:     ticks,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
