package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/smazurov/blinkd/internal/config"
	"github.com/smazurov/blinkd/internal/engine"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/hw"
	"github.com/smazurov/blinkd/internal/led"
	"github.com/smazurov/blinkd/internal/logging"
	"github.com/spf13/cobra"
)

// SimulateOptions describes one virtual-clock run.
type SimulateOptions struct {
	Pins       []int
	Pattern    string
	Sequence   string
	IntervalMs uint32
	DurationMs uint32
	StepMs     uint32
	Brightness int
	JSON       bool
}

// Transition is a change of a pin's effective output.
type Transition struct {
	At    uint32 `json:"at_ms"`
	Pin   int    `json:"pin"`
	Value int    `json:"value"`
}

// CreateSimulateCmd creates the simulate command.
func CreateSimulateCmd() *cobra.Command {
	var configFile string
	var pins string
	opts := SimulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run patterns against a virtual clock and print pin transitions",
		Long: `Drives the LED engine with a simulated millisecond clock and an in-memory pin ` +
			`backend, printing every change of pin output. No hardware is touched.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(config.LoadLoggingConfig(configFile))
			logger := logging.GetLogger("cmd")

			ids, err := config.ParseIntList(pins)
			if err != nil {
				logger.Error("Invalid pin list", "error", err)
				os.Exit(1)
			}
			opts.Pins = ids

			if err := Simulate(os.Stdout, opts, logger); err != nil {
				logger.Error("Simulation failed", "error", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Config file used for logging settings")
	cmd.Flags().StringVar(&pins, "pins", "2,4,5", "Comma-separated pin ids")
	cmd.Flags().StringVarP(&opts.Pattern, "pattern", "p", "", "Pattern applied to every LED")
	cmd.Flags().StringVarP(&opts.Sequence, "sequence", "s", "", "Group sequence (chase, wave, alternating)")
	cmd.Flags().Uint32Var(&opts.IntervalMs, "interval", 0, "Pattern or sequence interval in ms (0 = default)")
	cmd.Flags().Uint32VarP(&opts.DurationMs, "duration", "d", 3000, "Simulated time in ms")
	cmd.Flags().Uint32Var(&opts.StepMs, "step", 10, "Loop step in simulated ms")
	cmd.Flags().IntVarP(&opts.Brightness, "brightness", "b", led.MaxBrightness, "Brightness 0-255")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Emit transitions as JSON lines")

	return cmd
}

// Simulate runs opts against a virtual clock and writes the transitions.
func Simulate(w io.Writer, opts SimulateOptions, logger *slog.Logger) error {
	if len(opts.Pins) == 0 {
		return fmt.Errorf("at least one pin is required")
	}
	if opts.StepMs == 0 {
		opts.StepMs = 1
	}

	seq, err := led.ParseSequence(opts.Sequence)
	if err != nil {
		return err
	}
	var pattern led.Pattern
	if opts.Pattern != "" {
		if pattern, err = led.ParsePattern(opts.Pattern); err != nil {
			return err
		}
	}

	clock := hw.NewManualClock(0)
	rec := hw.NewRecorder(clock, hw.DefaultAllowList())
	group := led.NewGroup(clock, rec, opts.Pins...)
	rec.Reset()

	eng, err := engine.New(group, clock, events.New(), engine.Options{
		Sequence:         seq,
		SequenceInterval: hw.Millis(opts.IntervalMs),
	}, logger)
	if err != nil {
		return err
	}

	err = eng.Submit(func(g *led.Group) {
		g.AllSetBrightness(opts.Brightness)
		if opts.Pattern == "" {
			return
		}
		for i := range g.Len() {
			if opts.IntervalMs > 0 {
				g.LED(i).SetPatternInterval(pattern, hw.Millis(opts.IntervalMs))
			} else {
				g.LED(i).SetPattern(pattern)
			}
		}
	})
	if err != nil {
		return err
	}

	// Steps at 0, StepMs, ... up to DurationMs inclusive.
	steps := uint64(opts.DurationMs)/uint64(opts.StepMs) + 1
	for range steps {
		eng.Step()
		clock.Advance(hw.Millis(opts.StepMs))
	}

	transitions := Transitions(rec.Writes())
	logger.Debug("Simulation finished", "ticks", eng.Ticks(), "transitions", len(transitions))
	return writeTransitions(w, transitions, opts.JSON)
}

// Transitions collapses recorded writes into output changes per pin.
func Transitions(writes []hw.Write) []Transition {
	last := make(map[int]int)
	var out []Transition
	for _, wr := range writes {
		var v int
		switch wr.Kind {
		case hw.WriteDigital:
			if wr.Value != 0 {
				v = led.MaxBrightness
			}
		case hw.WriteAnalog:
			v = wr.Value
		default:
			continue
		}

		prev, seen := last[wr.Pin]
		if seen && prev == v {
			continue
		}
		if !seen && v == 0 {
			// Pins start dark.
			last[wr.Pin] = 0
			continue
		}
		last[wr.Pin] = v
		out = append(out, Transition{At: uint32(wr.At), Pin: wr.Pin, Value: v})
	}
	return out
}

func writeTransitions(w io.Writer, transitions []Transition, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, tr := range transitions {
			if err := enc.Encode(tr); err != nil {
				return err
			}
		}
		return nil
	}

	for _, tr := range transitions {
		if _, err := fmt.Fprintf(w, "%8dms  pin %-3d %3d\n", tr.At, tr.Pin, tr.Value); err != nil {
			return err
		}
	}
	return nil
}
