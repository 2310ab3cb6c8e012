package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smazurov/blinkd/internal/version"
	"github.com/spf13/cobra"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(_ *cobra.Command, _ []string) {
			info := version.Get()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(info)
				return
			}
			fmt.Println(info.String())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
