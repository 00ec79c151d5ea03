package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tradeimport/internal/config"
	"github.com/cleared-dev/tradeimport/internal/importer"
)

func newInitCommand() *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize an import directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, locale)
		},
	}

	cmd.Flags().StringVar(&locale, "default-locale", "en-US", "locale written to the config file")

	return cmd
}

func runInit(out io.Writer, dir, locale string) error {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	// Create directory structure.
	dirs := []string{
		"logs",
		"exports",
		importer.ImportDir,
		filepath.Join(importer.ImportDir, "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write tradeimport.yaml.
	cfg := config.Default()
	cfg.Locale = locale
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write .gitignore.
	gitignore := "logs/\nexports/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, importer.ImportDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Fprintf(out, "Initialized tradeimport project at %s\n", dir)
	return nil
}
