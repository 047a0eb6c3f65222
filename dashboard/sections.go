package dashboard

import (
	"strings"

	"github.com/rustyeddy/tradedash/results"
)

func buildDetails(in Input, v *View) error {
	b := in.Bundle
	d := &v.Details

	d.Symbol = notAvailable
	if b.Symbol != nil && *b.Symbol != "" {
		d.Symbol = *b.Symbol
	}
	d.Period = period(b.StartDate) + " to " + period(b.EndDate)
	d.Timeframes = notAvailable
	if len(b.Timeframes) > 0 {
		d.Timeframes = strings.Join(b.Timeframes, ", ")
	}

	for _, t := range []struct {
		name string
		t    results.Time
	}{{"start_date", b.StartDate}, {"end_date", b.EndDate}} {
		if t.t.Present() && !t.t.Valid {
			d.warn("unreadable " + t.name + ": " + string(t.t.Raw))
		}
	}
	return nil
}

func period(t results.Time) string {
	if !t.Valid {
		return notAvailable
	}
	return t.Time.Format(periodLayout)
}

func buildMetrics(in Input, v *View) error {
	b := in.Bundle
	v.Metrics.Cards = []Card{
		{Label: "Total return", Value: percentOr(b.TotalReturn)},
		{Label: "Win rate", Value: percentOr(b.WinRate)},
		{Label: "Profit factor", Value: ratioOr(b.ProfitFactor)},
		{Label: "Max drawdown", Value: percentOr(b.MaxDrawdown)},
	}
	return nil
}

func buildTrades(in Input, v *View) error {
	t := &v.Trades
	for _, issue := range in.Trades.Issues {
		t.warn(issue.Error())
	}

	switch {
	case !in.Bundle.HasTrades():
		t.Empty = "No trade data available"
		return nil
	case len(in.Bundle.Trades) == 0:
		t.Empty = "No trades were executed in this backtest"
		return nil
	case len(in.Trades.Trades) == 0:
		t.Empty = "No valid trades to show"
		return nil
	}

	t.Rows = make([]TradeRow, 0, len(in.Trades.Trades))
	for _, ct := range in.Trades.Trades {
		pnl := round2(ct.PnL)
		tone := "negative"
		if pnl > 0 {
			tone = "positive"
		}
		t.Rows = append(t.Rows, TradeRow{
			Index:      ct.Index,
			Entry:      ct.Entry,
			Exit:       ct.Exit,
			Type:       ct.Type.String(),
			EntryPrice: round2(ct.EntryPrice),
			ExitPrice:  round2(ct.ExitPrice),
			PnL:        pnl,
			StopLoss:   ct.StopLossPrice,
			TakeProfit: ct.TakeProfitPrice,
			Duration:   ct.Duration(),
			Tone:       tone,
		})
	}
	return nil
}

func buildStatistics(in Input, v *View) error {
	b := in.Bundle
	s := &v.Statistics
	s.Trading = []Stat{
		{Label: "Total trades", Value: countOr(b.TotalTrades)},
		{Label: "Winning trades", Value: countOr(b.WinningTrades)},
		{Label: "Losing trades", Value: countOr(b.LosingTrades)},
		{Label: "Win rate", Value: percentOr(b.WinRate)},
	}
	s.Capital = []Stat{
		{Label: "Initial capital", Value: moneyOr(b.InitialCapital)},
		{Label: "Final capital", Value: moneyOr(b.FinalCapital)},
		{Label: "Total return", Value: percentOr(b.TotalReturn)},
		{Label: "Max drawdown", Value: percentOr(b.MaxDrawdown)},
	}
	return nil
}
