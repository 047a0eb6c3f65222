package market

import "time"

// MACD column names written by the backtest engine into each price record.
const (
	MACDLine      = "MACD_12_26_9"
	MACDSignal    = "MACDs_12_26_9"
	MACDHistogram = "MACDh_12_26_9"
)

// MACDColumns lists the three columns the oscillator panel needs.
var MACDColumns = []string{MACDLine, MACDSignal, MACDHistogram}

// Bar is one OHLC price record plus whatever indicator columns the engine
// attached to it.
type Bar struct {
	time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume *float64

	Indicators map[string]float64
}

// Indicator returns the named indicator value and whether it was present.
func (b Bar) Indicator(name string) (float64, bool) {
	v, ok := b.Indicators[name]
	return v, ok
}

// HasAll reports whether every named indicator column is present on the bar.
func (b Bar) HasAll(cols ...string) bool {
	for _, c := range cols {
		if _, ok := b.Indicators[c]; !ok {
			return false
		}
	}
	return true
}
