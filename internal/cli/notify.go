package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradedash/notify"
)

func newNotifyCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a message to the configured Telegram chat",
		Long: `Send one notification. Credentials come from the config file or
TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.

Examples:
  tradedash notify message "deploy finished"
  tradedash notify signal --timeframe 1h --name "MACD cross" --strength 0.8 --price 43250.5
  tradedash notify summary --buy 0.7 --sell 0.3 --decision LONG --bid 43250 --ask 43251
  tradedash notify error "exchange unreachable" --detail "fetch candles"`,
	}

	cmd.AddCommand(
		newNotifyMessageCmd(rc),
		newNotifySignalCmd(rc),
		newNotifySummaryCmd(rc),
		newNotifyErrorCmd(rc),
	)
	return cmd
}

// delivered reports the outcome; a nil reply means the send failed and was
// logged.
func delivered(cmd *cobra.Command, r *notify.Response) error {
	if r == nil || !r.OK {
		desc := "no reply"
		if r != nil {
			desc = r.Description
		}
		return fmt.Errorf("message not delivered: %s", desc)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Sent")
	return nil
}

func newNotifyMessageCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "message TEXT...",
		Short: "Send plain text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := notifierFor(rc, true)
			if err != nil {
				return err
			}
			return delivered(cmd, n.Send(cmd.Context(), strings.Join(args, " ")))
		},
	}
}

func newNotifySignalCmd(rc *RootConfig) *cobra.Command {
	var s notify.Signal

	cmd := &cobra.Command{
		Use:   "signal",
		Short: "Send a trading signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := notifierFor(rc, true)
			if err != nil {
				return err
			}
			return delivered(cmd, n.SendSignal(cmd.Context(), s))
		},
	}

	cmd.Flags().StringVar(&s.Timeframe, "timeframe", "", "Signal timeframe")
	cmd.Flags().StringVar(&s.Name, "name", "", "Signal name")
	cmd.Flags().Float64Var(&s.Strength, "strength", 0, "Signal strength (negative is bearish)")
	cmd.Flags().Float64Var(&s.Price, "price", 0, "Price at the signal")
	cmd.Flags().StringVar(&s.AdditionalInfo, "info", "", "Extra detail")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

var decisions = map[string]string{
	"LONG":  notify.DecisionLong,
	"SHORT": notify.DecisionShort,
	"WAIT":  notify.DecisionWait,
}

func newNotifySummaryCmd(rc *RootConfig) *cobra.Command {
	var (
		s        notify.Summary
		decision string
		bid, ask float64
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Send the combined decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := notifierFor(rc, true)
			if err != nil {
				return err
			}
			d, ok := decisions[strings.ToUpper(decision)]
			if !ok {
				return fmt.Errorf("unknown decision %q", decision)
			}
			s.Decision = d
			if bid > 0 || ask > 0 {
				s.OrderBook = &notify.OrderBook{Bid: bid, Ask: ask, Mid: (bid + ask) / 2}
			}
			return delivered(cmd, n.SendSummary(cmd.Context(), s))
		},
	}

	cmd.Flags().Float64Var(&s.BuyWeight, "buy", 0, "Buy weight")
	cmd.Flags().Float64Var(&s.SellWeight, "sell", 0, "Sell weight")
	cmd.Flags().StringVar(&decision, "decision", "WAIT", "LONG, SHORT or WAIT")
	cmd.Flags().Float64Var(&bid, "bid", 0, "Best bid")
	cmd.Flags().Float64Var(&ask, "ask", 0, "Best ask")
	return cmd
}

func newNotifyErrorCmd(rc *RootConfig) *cobra.Command {
	var detail string

	cmd := &cobra.Command{
		Use:   "error MESSAGE",
		Short: "Send an error report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := notifierFor(rc, true)
			if err != nil {
				return err
			}
			return delivered(cmd, n.SendError(cmd.Context(), args[0], detail))
		},
	}

	cmd.Flags().StringVar(&detail, "detail", "", "Where the error happened")
	return cmd
}
