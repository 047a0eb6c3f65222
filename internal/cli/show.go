package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradedash/dashboard"
	"github.com/rustyeddy/tradedash/report"
	"github.com/rustyeddy/tradedash/results"
)

func newShowCmd(rc *RootConfig) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarise the newest results file",
		Long: `Load the newest result file (or the one given with --file) and print
its metrics, statistics and trade log.

Examples:
  tradedash show
  tradedash show --file results/run-42.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadView(rc, file)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(v); encErr != nil {
					return encErr
				}
				return err
			}
			report.PrintSummary(cmd.OutOrStdout(), v)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Result file (default: newest in the results directory)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

// loadView renders file, or the newest artifact when file is empty. On a
// load failure the returned view carries only the error.
func loadView(rc *RootConfig, file string) (dashboard.View, error) {
	var (
		b   *results.Bundle
		err error
	)
	if file != "" {
		b, err = results.LoadFile(file)
	} else {
		b, err = results.NewLoader(rc.Config.Results.Directory()).Load()
	}
	if err != nil {
		return dashboard.Failed("", err), err
	}
	return dashboard.NewRenderer().Build(b), nil
}
