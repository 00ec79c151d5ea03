package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tradeimport/internal/importer"
)

func newAdaptersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the provider adapters used for detection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := a.engine.Registry()
			for _, id := range reg.IDs() {
				note := ""
				if _, ok := reg.Get(id).(importer.Renderer); ok {
					note = "  (native output)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", id, note)
			}
			return nil
		},
	}
}
