// Package report writes a rendered dashboard view as plain text, CSV and
// Org-mode for terminal and file use.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/tradedash/dashboard"
)

const rule = "--------------------------------------------------"

// PrintSummary writes a fixed-width text report of v.
func PrintSummary(w io.Writer, v dashboard.View) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if v.Error != "" {
		fmt.Fprintf(w, "Error:         %s\n\n", v.Error)
		return
	}

	if v.Source != "" {
		fmt.Fprintf(w, "Source:        %s\n", v.Source)
	}
	if !v.ModTime.IsZero() {
		fmt.Fprintf(w, "Written:       %s\n", v.ModTime.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Symbol:        %s\n", v.Details.Symbol)
	fmt.Fprintf(w, "Period:        %s\n", v.Details.Period)
	fmt.Fprintf(w, "Timeframes:    %s\n", v.Details.Timeframes)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Key Metrics")
	fmt.Fprintln(w, rule)
	for _, c := range v.Metrics.Cards {
		fmt.Fprintf(w, "%-15s%s\n", c.Label+":", c.Value)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, rule)
	for _, s := range v.Statistics.Trading {
		fmt.Fprintf(w, "%-17s%s\n", s.Label+":", s.Value)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, rule)
	for _, s := range v.Statistics.Capital {
		fmt.Fprintf(w, "%-17s%s\n", s.Label+":", s.Value)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trades")
	fmt.Fprintln(w, rule)
	if !v.Trades.Ready() {
		fmt.Fprintln(w, sectionText(&v.Trades.Section))
	}
	for _, r := range v.Trades.Rows {
		fmt.Fprintf(w, "%-5s %s -> %s  %10.2f -> %-10.2f pnl %9.2f  %s\n",
			r.Type, r.EntryText(), r.ExitText(), r.EntryPrice, r.ExitPrice, r.PnL, r.DurationText())
	}

	var notes []string
	notes = append(notes, v.Warnings...)
	for _, s := range v.Sections() {
		if s.Err != nil {
			notes = append(notes, s.Error)
		}
		for _, msg := range s.Warnings {
			notes = append(notes, s.Name+": "+msg)
		}
	}
	if len(notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, rule)
		for _, n := range notes {
			fmt.Fprintf(w, "- %s\n", n)
		}
	}

	fmt.Fprintln(w)
}

func sectionText(s *dashboard.Section) string {
	if s.Err != nil {
		return s.Error
	}
	return s.Empty
}
