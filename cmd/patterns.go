package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/smazurov/blinkd/internal/led"
	"github.com/spf13/cobra"
)

// CreatePatternsCmd creates the patterns command.
func CreatePatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List LED patterns and group sequences",
		Run: func(_ *cobra.Command, _ []string) {
			if err := listPatterns(os.Stdout); err != nil {
				os.Exit(1)
			}
		},
	}
}

func listPatterns(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATTERN\tINTERVAL")
	for _, name := range led.PatternNames() {
		p, err := led.ParsePattern(name)
		if err != nil {
			return err
		}
		if p == led.Solid {
			fmt.Fprintf(tw, "%s\t-\n", name)
			continue
		}
		fmt.Fprintf(tw, "%s\t%dms\n", name, p.Interval())
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SEQUENCE\t")
	for _, name := range led.SequenceNames() {
		fmt.Fprintf(tw, "%s\t\n", name)
	}
	return tw.Flush()
}
