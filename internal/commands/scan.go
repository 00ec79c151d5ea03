package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tradeimport/internal/export"
	"github.com/cleared-dev/tradeimport/internal/importer"
	"github.com/cleared-dev/tradeimport/internal/source"
)

const exportsDir = "exports"

func newScanCommand(a *app) *cobra.Command {
	var move bool

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Convert every export waiting in import/",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := a.root
			if len(args) > 0 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolving path: %w", err)
				}
				root = abs
			}
			return a.runScan(cmd, root, move)
		},
	}

	cmd.Flags().BoolVar(&move, "move", false, "move converted files to import/processed")

	return cmd
}

func (a *app) runScan(cmd *cobra.Command, root string, move bool) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	files, err := importer.Scan(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No files in import/")
		return nil
	}

	var failed, trades int
	var total int64
	for _, fi := range files {
		total += fi.Size
		n, err := a.scanFile(root, fi)
		if err != nil {
			failed++
			fmt.Fprintf(errOut, "%s: %v\n", fi.Name, err)
			continue
		}
		trades += n
		if move {
			if err := importer.MarkProcessed(root, fi.Name); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(out, "Scanned %d files (%s): %s trades, %d failed\n",
		len(files), humanize.Bytes(uint64(total)), humanize.Comma(int64(trades)), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be converted", failed, len(files))
	}
	return nil
}

// scanFile converts one file and writes its trades to exports/<name>.trades.csv.
func (a *app) scanFile(root string, fi importer.FileInfo) (int, error) {
	f, err := source.Open(fi.Path)
	if err != nil {
		return 0, err
	}
	res, err := a.engine.Parse(f, a.cfg.Locale, "")
	if err != nil {
		return 0, err
	}

	dir := filepath.Join(root, exportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating exports dir: %w", err)
	}
	base := strings.TrimSuffix(fi.Name, filepath.Ext(fi.Name))
	out, err := os.Create(filepath.Join(dir, base+".trades.csv"))
	if err != nil {
		return 0, fmt.Errorf("creating export: %w", err)
	}
	defer out.Close()
	if err := export.WriteTrades(out, res.Trades); err != nil {
		return 0, err
	}
	return len(res.Trades), nil
}
