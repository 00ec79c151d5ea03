package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tradeimport/internal/importer"
	"github.com/cleared-dev/tradeimport/internal/mapping"
	"github.com/cleared-dev/tradeimport/internal/model"
	"github.com/cleared-dev/tradeimport/internal/source"
)

func newProposeCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "propose [header...]",
		Short: "Suggest a column mapping for a header row",
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := args
			if file != "" {
				h, err := a.fileHeaders(file)
				if err != nil {
					return err
				}
				headers = h
			}
			if len(headers) == 0 {
				return errors.New("no headers given; pass them as arguments or use --file")
			}
			printMapping(cmd.OutOrStdout(), mapping.Propose(headers))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read the header row from this file")

	return cmd
}

func newMapCommand(a *app) *cobra.Command {
	var sets []string
	var opts outputOptions

	cmd := &cobra.Command{
		Use:   "map <file>",
		Short: "Convert an export through an explicit column mapping",
		Long: "Starts from the proposed mapping for the file's header row. Each --set field=header\n" +
			"overrides one field; an empty header clears it. All of date, ticker, action,\n" +
			"quantity and price must end up mapped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers, err := a.fileHeaders(args[0])
			if err != nil {
				return err
			}

			session := mapping.NewSession()
			if _, err := session.Resolve(model.UnknownAdapter, headers); err != nil {
				return err
			}
			for _, s := range sets {
				name, header, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("--set %q: want field=header", s)
				}
				field, ok := model.ParseField(name)
				if !ok {
					return fmt.Errorf("--set %q: %w %q", s, mapping.ErrUnknownField, name)
				}
				if err := session.Set(field, header); err != nil {
					return err
				}
			}
			m, err := session.Confirm()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Current mapping:")
				printMapping(cmd.ErrOrStderr(), session.Mapping())
				return err
			}

			f, err := source.Open(args[0])
			if err != nil {
				return err
			}
			res, err := a.engine.ParseWithMapping(f, m, a.cfg.Locale)
			if err != nil {
				return err
			}
			printSummary(cmd.ErrOrStderr(), f.Name(), f.Size(), res)
			return opts.write(cmd.OutOrStdout(), a.engine.Registry(), a.cfg.Locale, res)
		},
	}

	addOutputFlags(cmd, &opts)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "assign a header to a field, as field=header (repeatable)")

	return cmd
}

func (a *app) fileHeaders(path string) ([]string, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	text, err := source.Decode(f)
	if err != nil {
		return nil, err
	}
	headers, _, _ := importer.Headers(text.Sample(a.cfg.SampleBytes), 1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("no header row found in %s", f.Name())
	}
	return headers, nil
}
