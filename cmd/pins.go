package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/smazurov/blinkd/internal/config"
	"github.com/smazurov/blinkd/internal/hw"
	"github.com/smazurov/blinkd/internal/logging"
	"github.com/spf13/cobra"
)

// CreatePinsCmd creates the pins command.
func CreatePinsCmd() *cobra.Command {
	var backend string
	var pins string
	var sysfsLEDs string

	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Show the detected board, pin backend and PWM capability",
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			logger := logging.GetLogger("hw")

			ids, err := config.ParseIntList(pins)
			if err != nil {
				logger.Error("Invalid pin list", "error", err)
				os.Exit(1)
			}
			leds, err := config.ParsePinMap(sysfsLEDs)
			if err != nil {
				logger.Error("Invalid sysfs LED mapping", "error", err)
				os.Exit(1)
			}

			if err := describePins(os.Stdout, backend, ids, hw.Options{SysfsLEDs: leds}, logger); err != nil {
				logger.Error("Failed to open pin backend", "error", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&backend, "backend", hw.BackendAuto, BackendUsage())
	cmd.Flags().StringVar(&pins, "pins", "2,4,5", "Comma-separated pin ids")
	cmd.Flags().StringVar(&sysfsLEDs, "sysfs-leds", "", "pin=led mapping for the sysfs backend")

	return cmd
}

// BackendUsage is the help text for a backend flag.
func BackendUsage() string {
	return "Pin backend (" + strings.Join(hw.Backends(), ", ") + ")"
}

func describePins(w io.Writer, backend string, ids []int, opts hw.Options, logger *slog.Logger) error {
	driver, err := hw.New(backend, opts, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Board:    %s\n", hw.DetectBoard())
	fmt.Fprintf(w, "Backend:  %s (%T)\n", backend, driver)
	fmt.Fprintf(w, "PWM pins: %v\n\n", hw.DefaultAllowList().Pins())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PIN\tPWM")
	for _, id := range ids {
		fmt.Fprintf(tw, "%d\t%t\n", id, driver.SupportsPWM(id))
	}
	return tw.Flush()
}
