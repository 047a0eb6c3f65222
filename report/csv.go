package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/tradedash/dashboard"
)

// TradeHeader is the column order of WriteTradesCSV.
var TradeHeader = []string{
	"entry_time", "exit_time", "type", "entry_price", "exit_price", "pnl",
	"stop_loss_price", "take_profit_price", "duration",
}

// WriteTradesCSV writes the trade log with a header row.
func WriteTradesCSV(w io.Writer, rows []dashboard.TradeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeHeader); err != nil {
		return err
	}
	for _, r := range rows {
		err := cw.Write([]string{
			r.Entry.Format(time.RFC3339),
			r.Exit.Format(time.RFC3339),
			r.Type,
			f(r.EntryPrice),
			f(r.ExitPrice),
			f(r.PnL),
			optional(r.StopLoss),
			optional(r.TakeProfit),
			r.DurationText(),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func optional(p *float64) string {
	if p == nil {
		return ""
	}
	return f(*p)
}
