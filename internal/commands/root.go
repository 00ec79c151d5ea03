package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tradeimport/internal/buildinfo"
	"github.com/cleared-dev/tradeimport/internal/config"
	"github.com/cleared-dev/tradeimport/internal/importer"
	"github.com/cleared-dev/tradeimport/internal/pipeline"
	"github.com/cleared-dev/tradeimport/internal/telemetry"
)

// app is the state shared by subcommands, filled in before any of them runs.
type app struct {
	configPath string
	locale     string
	logLevel   string

	root    string // directory holding the config file
	project bool   // the config file exists
	cfg     *config.Config
	logger  *slog.Logger
	engine  *pipeline.Engine
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:     "tradeimport",
		Short:   "Convert broker and exchange exports into canonical trades",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.FileName, "path to "+config.FileName)
	flags.StringVar(&a.locale, "locale", "", `locale of numbers and dates, e.g. "de-DE", or "auto"`)
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		newInitCommand(),
		newDetectCommand(a),
		newParseCommand(a),
		newProposeCommand(a),
		newMapCommand(a),
		newScanCommand(a),
		newServeCommand(a),
		newAdaptersCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	absPath, err := filepath.Abs(a.configPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	a.root = filepath.Dir(absPath)

	if err := config.LoadEnvFile(filepath.Join(a.root, ".env")); err != nil {
		return err
	}
	cfg, err := config.Load(absPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		return err
	default:
		a.project = true
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if a.locale != "" {
		cfg.Locale = a.locale
	}
	if a.logLevel != "" {
		cfg.Telemetry.LogLevel = a.logLevel
	}
	a.cfg = cfg

	a.logger = telemetry.NewLogger(cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat, cmd.ErrOrStderr())
	hooks := []telemetry.Hook{telemetry.SlogHook{Logger: a.logger}}
	if a.project && cfg.Telemetry.EventLog {
		hooks = append(hooks, &telemetry.EventLogHook{Root: a.root, Logger: a.logger})
	}
	a.engine = pipeline.NewEngine(importer.DefaultRegistry(), cfg, telemetry.Multi(hooks...), a.logger)
	return nil
}
