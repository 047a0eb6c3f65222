// Package backtest validates run requests from the dashboard form and hands
// them to the external backtest engine.
package backtest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradedash/config"
	"github.com/rustyeddy/tradedash/market"
)

const dateLayout = "2006-01-02"

// Request is one validated backtest invocation. Start is midnight of the
// first day and End the last instant of the final day, both UTC.
type Request struct {
	Symbol         string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	Timeframes     []string
}

// Timeframe returns the single selected timeframe.
func (r Request) Timeframe() string {
	if len(r.Timeframes) == 0 {
		return ""
	}
	return r.Timeframes[0]
}

// Form is the raw run form.
type Form struct {
	Symbol    string
	StartDate string
	EndDate   string
	Timeframe string
	Capital   string
}

// Limits bound what the form may request.
type Limits struct {
	Symbols     []string
	Timeframes  []string
	MinCapital  float64
	MaxCapital  float64
	CapitalStep float64
}

// LimitsFrom reads the form bounds from the UI configuration.
func LimitsFrom(ui config.UIConfig) Limits {
	return Limits{
		Symbols:     ui.Symbols,
		Timeframes:  ui.Timeframes,
		MinCapital:  ui.MinCapital,
		MaxCapital:  ui.MaxCapital,
		CapitalStep: ui.CapitalStep,
	}
}

// FieldError is one rejected form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError lists every rejected field of a form.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid backtest request: " + strings.Join(msgs, "; ")
}

// Message returns the error text for field, or "".
func (v ValidationError) Message(field string) string {
	for _, e := range v {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// NewRequest validates f against lim. Dates may not be after today's date
// and the end date may not precede the start date. Exactly one timeframe
// must be chosen; there is no default. Capital must lie within the bounds
// and be a whole number of steps.
func NewRequest(f Form, lim Limits, today time.Time) (Request, error) {
	var errs ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	req := Request{Symbol: strings.TrimSpace(f.Symbol)}
	if !contains(lim.Symbols, req.Symbol) {
		add("symbol", "unsupported trading pair %q", req.Symbol)
	}

	y, m, d := today.Date()
	todayUTC := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	start, startErr := time.Parse(dateLayout, strings.TrimSpace(f.StartDate))
	if startErr != nil {
		add("start_date", "expected a date like 2006-01-02")
	} else if start.After(todayUTC) {
		add("start_date", "may not be after today")
	}
	end, endErr := time.Parse(dateLayout, strings.TrimSpace(f.EndDate))
	if endErr != nil {
		add("end_date", "expected a date like 2006-01-02")
	} else if end.After(todayUTC) {
		add("end_date", "may not be after today")
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		add("end_date", "must not be before the start date")
	}
	req.Start = start
	req.End = end.Add(24*time.Hour - time.Nanosecond)

	tf := strings.TrimSpace(f.Timeframe)
	switch {
	case tf == "":
		add("timeframe", "select a timeframe")
	case !contains(lim.Timeframes, tf):
		add("timeframe", "unsupported timeframe %q", tf)
	default:
		req.Timeframes = []string{tf}
	}

	capital, err := decimal.NewFromString(strings.TrimSpace(f.Capital))
	switch {
	case err != nil:
		add("capital", "expected a number")
	case capital.LessThan(decimal.NewFromFloat(lim.MinCapital)) || capital.GreaterThan(decimal.NewFromFloat(lim.MaxCapital)):
		add("capital", "must be between %s and %s", fmtAmount(lim.MinCapital), fmtAmount(lim.MaxCapital))
	case lim.CapitalStep > 0 && !capital.Mod(decimal.NewFromFloat(lim.CapitalStep)).IsZero():
		add("capital", "must be a multiple of %s", fmtAmount(lim.CapitalStep))
	default:
		req.InitialCapital = capital.InexactFloat64()
	}

	if len(errs) > 0 {
		return Request{}, errs
	}
	return req, nil
}

func contains(list []string, s string) bool {
	return market.IsTimeframe(s, list)
}

func fmtAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
