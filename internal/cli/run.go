package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradedash/backtest"
	"github.com/rustyeddy/tradedash/dashboard"
	"github.com/rustyeddy/tradedash/market"
	"github.com/rustyeddy/tradedash/report"
	"github.com/rustyeddy/tradedash/results"
)

func newRunCmd(rc *RootConfig) *cobra.Command {
	var f backtest.Form

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the backtest engine and summarise its results",
		Long: `Validate the parameters, run the configured backtest command and print
a summary of the result file it writes.

Example:
  tradedash run --symbol BTC/USDT --start 2024-01-01 --end 2024-03-31 --timeframe 4h --capital 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config
			now := time.Now()
			if f.StartDate == "" {
				f.StartDate = now.AddDate(0, 0, -cfg.UI.LookbackDays).Format("2006-01-02")
			}
			if f.EndDate == "" {
				f.EndDate = now.Format("2006-01-02")
			}
			if f.Capital == "" {
				f.Capital = strconv.FormatFloat(cfg.UI.DefaultCapital, 'f', -1, 64)
			}

			req, err := backtest.NewRequest(f, backtest.LimitsFrom(cfg.UI), now)
			if err != nil {
				return err
			}

			wait, err := cfg.Results.Wait()
			if err != nil {
				return err
			}
			loader := results.NewLoader(cfg.Results.Directory())
			runner := backtest.NewExecRunner(cfg.Backtest, loader.Dir)

			started := time.Now()
			if err := runner.Run(cmd.Context(), req); err != nil {
				return err
			}
			b, err := loader.WaitForFresh(cmd.Context(), started, wait)
			if err != nil {
				return fmt.Errorf("waiting for results: %w", err)
			}

			v := dashboard.NewRenderer().Build(b)
			report.PrintSummary(cmd.OutOrStdout(), v)

			if cfg.Notify.OnRun {
				if n, _ := notifierFor(rc, false); n != nil {
					n.Send(cmd.Context(), "✅ Backtest finished: "+req.Symbol+" "+req.Timeframe())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Symbol, "symbol", market.DefaultSymbol, "Trading pair")
	cmd.Flags().StringVar(&f.StartDate, "start", "", "First day, YYYY-MM-DD (default: lookback from today)")
	cmd.Flags().StringVar(&f.EndDate, "end", "", "Last day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&f.Timeframe, "timeframe", "", "Candle timeframe, e.g. 1h")
	cmd.Flags().StringVar(&f.Capital, "capital", "", "Initial capital (default from config)")
	return cmd
}
