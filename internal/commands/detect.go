package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tradeimport/internal/source"
)

func newDetectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Identify which provider produced an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := source.Open(args[0])
			if err != nil {
				return err
			}
			text, err := source.Decode(f)
			if err != nil {
				return err
			}
			det := a.engine.Registry().Detect(text.Sample(a.cfg.SampleBytes))
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, det.ID)
			if !det.Known() && len(det.Candidates) > 0 {
				fmt.Fprintf(out, "candidates: %s\n", strings.Join(det.Candidates, ", "))
			}
			return nil
		},
	}
}
