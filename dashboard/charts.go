package dashboard

import (
	"encoding/json"
	"math"
	"time"

	"github.com/rustyeddy/tradedash/chart"
	"github.com/rustyeddy/tradedash/market"
	"github.com/rustyeddy/tradedash/series"
)

const (
	rowTop     = 0.7
	rowSpacing = 0.05
	guideSpan  = 24 * time.Hour
)

func buildCapital(in Input, v *View) error {
	c := &v.Capital
	c.warn(in.Balance.Warnings...)
	c.warn(in.Drawdown.Warnings...)

	switch {
	case in.Balance.Absent():
		c.Empty = "No capital history available"
		return nil
	case in.Balance.Empty():
		c.Empty = "No valid capital history"
		return nil
	}

	balance := in.Balance.Values()
	lo, hi := bounds(balance)

	layout := chart.TwoRow("Capital and drawdown", 600, rowTop, rowSpacing)
	layout.XAxis2.Title = &chart.Title{Text: "Date"}
	layout.YAxis.Title = &chart.Title{Text: "Capital ($)"}
	layout.YAxis.TickFormat = "$,.2f"
	layout.YAxis.Range = []float64{lo * 0.95, hi * 1.05}
	layout.YAxis2.Title = &chart.Title{Text: "Drawdown (%)"}
	layout.YAxis2.TickFormat = ".2%"

	capital := chart.Scatter("Capital", in.Balance.Times(), balance)
	capital.Line = &chart.Line{Color: "blue"}
	capital.Fill = "tozeroy"
	fig := &chart.Figure{Layout: layout}
	fig.Add(capital.OnRow(1))

	if ic := in.Bundle.InitialCapital; ic.Valid {
		fig.Layout.HLine(ic.Decimal.InexactFloat64(), "gray", "dash", "Initial capital")
	}

	if !in.Drawdown.Empty() {
		dd := in.Drawdown.Values()
		trace := chart.Scatter("Drawdown", in.Drawdown.Times(), dd)
		trace.Line = &chart.Line{Color: "red"}
		trace.Fill = "tozeroy"
		fig.Add(trace.OnRow(2))

		if low, _ := bounds(dd); low < 0 {
			fig.Layout.YAxis2.Range = []float64{low * 1.5, 0}
		}
	}

	return encode(c, fig)
}

func buildTechnical(in Input, v *View) error {
	c := &v.Technical
	c.warn(in.Price.Warnings...)

	switch {
	case in.Price.Absent():
		c.Empty = "No price data available"
		return nil
	case in.Price.Empty():
		c.Empty = "No valid data for the technical chart"
		return nil
	}

	bars := in.Price.Values()
	times := chart.Times(in.Price.Times())
	open := make(chart.Numbers, len(bars))
	high := make(chart.Numbers, len(bars))
	low := make(chart.Numbers, len(bars))
	closes := make(chart.Numbers, len(bars))
	for i, b := range bars {
		open[i], high[i], low[i], closes[i] = b.Open, b.High, b.Low, b.Close
	}

	oscillator := hasOscillator(bars)
	var layout chart.Layout
	if oscillator {
		layout = chart.TwoRow("Technical analysis", 800, rowTop, rowSpacing)
		layout.YAxis2.Title = &chart.Title{Text: "MACD"}
	} else {
		layout = chart.Layout{
			Title:      &chart.Title{Text: "Technical analysis"},
			Height:     600,
			ShowLegend: true,
			XAxis:      &chart.Axis{},
			YAxis:      &chart.Axis{},
		}
	}
	layout.XAxis.RangeSlider = &chart.RangeSlider{Visible: false}
	layout.YAxis.Title = &chart.Title{Text: "Price"}
	layout.YAxis.TickFormat = "$,.2f"
	layout.Legend = &chart.Legend{X: 0.01, Y: 0.99, XAnchor: "left", YAnchor: "top"}

	fig := &chart.Figure{Layout: layout}
	fig.Add(chart.Candlestick("Price", times, open, high, low, closes).OnRow(1))

	a := in.Trades
	if len(a.LongEntries) > 0 {
		fig.Add(markers("Long entry", a.LongEntries, "triangle-up", 12, "green", "top center"))
		guides(&fig.Layout, a.LongEntries)
	}
	if len(a.ShortEntries) > 0 {
		fig.Add(markers("Short entry", a.ShortEntries, "triangle-down", 12, "red", "bottom center"))
		guides(&fig.Layout, a.ShortEntries)
	}
	if len(a.Exits) > 0 {
		fig.Add(markers("Exit", a.Exits, "x", 10, "gray", "bottom center"))
	}

	if oscillator {
		macd := column(bars, market.MACDLine)
		signal := column(bars, market.MACDSignal)
		hist := column(bars, market.MACDHistogram)

		line := chart.Scatter("MACD", times, macd)
		line.Line = &chart.Line{Color: "blue"}
		sig := chart.Scatter("Signal", times, signal)
		sig.Line = &chart.Line{Color: "orange"}
		bar := chart.Bar("Histogram", times, hist)
		bar.Marker = &chart.Marker{Color: signColors(hist)}

		fig.Add(line.OnRow(2), sig.OnRow(2), bar.OnRow(2))
		c.Oscillator = true
	}

	return encode(c, fig)
}

// hasOscillator reports whether every bar carries all MACD columns.
func hasOscillator(bars []market.Bar) bool {
	for _, b := range bars {
		if !b.HasAll(market.MACDColumns...) {
			return false
		}
	}
	return len(bars) > 0
}

func column(bars []market.Bar, name string) chart.Numbers {
	out := make(chart.Numbers, len(bars))
	for i, b := range bars {
		out[i], _ = b.Indicator(name)
	}
	return out
}

func signColors(vals []float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		if v > 0 {
			out[i] = "green"
		} else {
			out[i] = "red"
		}
	}
	return out
}

func markers(name string, ms []series.Marker, symbol string, size int, color, pos string) chart.Trace {
	x := make(chart.Times, len(ms))
	y := make(chart.Numbers, len(ms))
	labels := make([]string, len(ms))
	for i, m := range ms {
		x[i], y[i], labels[i] = m.Time, m.Price, Money(m.Price)
	}
	show := true
	t := chart.Markers(name, x, y, labels)
	t.Marker = &chart.Marker{Symbol: symbol, Size: size, Color: color}
	t.TextPosition = pos
	t.ShowLegend = &show
	return t.OnRow(1)
}

// guides draws one-day stop-loss and take-profit segments from each entry.
func guides(l *chart.Layout, entries []series.Marker) {
	for _, e := range entries {
		if e.StopLoss != nil && *e.StopLoss != 0 {
			l.Segment(e.Time, guideSpan, *e.StopLoss, "red")
		}
		if e.TakeProfit != nil && *e.TakeProfit != 0 {
			l.Segment(e.Time, guideSpan, *e.TakeProfit, "green")
		}
	}
}

func bounds(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func encode(c *Chart, fig *chart.Figure) error {
	b, err := json.Marshal(fig)
	if err != nil {
		return err
	}
	c.Figure = b
	return nil
}
