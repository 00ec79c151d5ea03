package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tradeimport/internal/pipeline"
	"github.com/cleared-dev/tradeimport/internal/source"
)

func newParseCommand(a *app) *cobra.Command {
	var adapterID string
	var opts outputOptions

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Convert an export into canonical trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := source.Open(args[0])
			if err != nil {
				return err
			}
			res, err := a.engine.Parse(f, a.cfg.Locale, adapterID)
			var unknown *pipeline.UnknownFormatError
			if errors.As(err, &unknown) {
				printMappingRequest(cmd.OutOrStdout(), unknown.Request)
				return err
			}
			if err != nil {
				return err
			}
			printSummary(cmd.ErrOrStderr(), f.Name(), f.Size(), res)
			return opts.write(cmd.OutOrStdout(), a.engine.Registry(), a.cfg.Locale, res)
		},
	}

	addOutputFlags(cmd, &opts)
	cmd.Flags().StringVar(&adapterID, "adapter", "", "skip detection and use this adapter")

	return cmd
}

func addOutputFlags(cmd *cobra.Command, opts *outputOptions) {
	cmd.Flags().StringVar(&opts.format, "format", "csv", "output format: csv, json or events")
	cmd.Flags().StringVar(&opts.to, "to", "", "write trades in this adapter's native layout instead")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to a file instead of stdout")
}
