package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradedash/report"
)

func newExportCmd(rc *RootConfig) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export results as CSV or Org",
		Long: `Export the newest result file.

Subcommands:
  trades - the trade log as CSV
  org    - an Org mode report

Examples:
  tradedash export trades -o trades.csv
  tradedash export org -o backtest.org`,
	}
	cmd.PersistentFlags().StringVarP(&file, "file", "f", "", "Result file (default: newest in the results directory)")

	var tradesOut string
	trades := &cobra.Command{
		Use:   "trades",
		Short: "Write the trade log as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadView(rc, file)
			if err != nil {
				return err
			}
			w, done, err := output(cmd.OutOrStdout(), tradesOut)
			if err != nil {
				return err
			}
			if err := report.WriteTradesCSV(w, v.Trades.Rows); err != nil {
				done()
				return fmt.Errorf("write csv: %w", err)
			}
			return done()
		},
	}
	trades.Flags().StringVarP(&tradesOut, "output", "o", "", "Output file (default stdout)")

	var orgOut string
	org := &cobra.Command{
		Use:   "org",
		Short: "Write an Org mode report",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadView(rc, file)
			if err != nil {
				return err
			}
			if orgOut != "" {
				if err := report.WriteOrg(orgOut, v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", orgOut)
				return nil
			}
			s, err := report.FormatOrg(v)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), s)
			return err
		},
	}
	org.Flags().StringVarP(&orgOut, "output", "o", "", "Output file (default stdout)")

	cmd.AddCommand(trades, org)
	return cmd
}

// output opens path for writing, or returns stdout when path is empty.
func output(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
