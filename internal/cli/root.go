// Package cli wires the tradedash commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradedash/config"
)

// RootConfig holds the persistent flags and the configuration they resolve
// to before any subcommand runs.
type RootConfig struct {
	ConfigPath string
	ResultsDir string
	LogLevel   string
	NoColor    bool

	Config *config.Config
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "tradedash",
		Short: "Tradedash: backtest results dashboard and trade notifier",
		Long: `Tradedash shows the results of a trading strategy backtest.

It provides tools for:
  - Serving the web dashboard with the run form and charts
  - Running the backtest engine and summarising its newest results file
  - Exporting the trade log as CSV or an Org report
  - Sending trade signals and summaries to a Telegram chat`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.ResultsDir, "results-dir", "", "Directory holding result files")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&rc.NoColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd.ErrOrStderr(), rc.LogLevel, rc.NoColor); err != nil {
			return err
		}
		cfg, err := config.Load(rc.ConfigPath)
		if err != nil {
			return err
		}
		if rc.ResultsDir != "" {
			cfg.Results.Dir = rc.ResultsDir
		}
		rc.Config = cfg
		return nil
	}

	cmd.AddCommand(
		newServeCmd(rc),
		newRunCmd(rc),
		newShowCmd(rc),
		newExportCmd(rc),
		newNotifyCmd(rc),
		newConfigCmd(),
		newVersionCmd(),
	)

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(w io.Writer, level string, noColor bool) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
	return nil
}
