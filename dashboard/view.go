package dashboard

import (
	"encoding/json"
	"fmt"
	"time"
)

// SectionError is a failure confined to one dashboard section.
type SectionError struct {
	Section string
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %s: %v", e.Section, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// Section is the state every dashboard area shares. A section shows its
// content, an empty-state message, or an error message; warnings are shown
// alongside whichever applies.
type Section struct {
	Name     string        `json:"name"`
	Title    string        `json:"title"`
	Empty    string        `json:"empty,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Error    string        `json:"error,omitempty"`
	Err      *SectionError `json:"-"`
}

// Ready reports whether the section has content to draw.
func (s *Section) Ready() bool {
	return s.Err == nil && s.Empty == ""
}

func (s *Section) fail(err error) {
	s.Err = &SectionError{Section: s.Name, Err: err}
	s.Error = s.Err.Error()
}

func (s *Section) warn(msgs ...string) {
	s.Warnings = append(s.Warnings, msgs...)
}

type Details struct {
	Section
	Symbol     string `json:"symbol"`
	Period     string `json:"period"`
	Timeframes string `json:"timeframes"`
}

// Card is one headline metric.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Metrics struct {
	Section
	Cards []Card `json:"cards"`
}

// Chart holds an encoded Plotly figure.
type Chart struct {
	Section
	Figure json.RawMessage `json:"figure,omitempty"`

	// Oscillator is set when the MACD panel was drawn.
	Oscillator bool `json:"oscillator,omitempty"`
}

// TradeRow is one line of the trade log. Prices and pnl are rounded to
// cents.
type TradeRow struct {
	Index      int           `json:"index"`
	Entry      time.Time     `json:"entry_time"`
	Exit       time.Time     `json:"exit_time"`
	Type       string        `json:"type"`
	EntryPrice float64       `json:"entry_price"`
	ExitPrice  float64       `json:"exit_price"`
	PnL        float64       `json:"pnl"`
	StopLoss   *float64      `json:"stop_loss_price,omitempty"`
	TakeProfit *float64      `json:"take_profit_price,omitempty"`
	Duration   time.Duration `json:"duration"`
	Tone       string        `json:"tone"`
}

func (r TradeRow) EntryText() string    { return r.Entry.Format(timeLayout) }
func (r TradeRow) ExitText() string     { return r.Exit.Format(timeLayout) }
func (r TradeRow) DurationText() string { return FormatDuration(r.Duration) }

type TradeTable struct {
	Section
	Rows []TradeRow `json:"rows"`
}

// Stat is one labelled line of the statistics block.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Statistics struct {
	Section
	Trading []Stat `json:"trading"`
	Capital []Stat `json:"capital"`
}

// View is everything the page needs for one render pass.
type View struct {
	RenderID string    `json:"render_id"`
	Source   string    `json:"source,omitempty"`
	ModTime  time.Time `json:"mod_time,omitempty"`

	// Error is set when the artifact could not be loaded; no section is
	// built in that case.
	Error string `json:"error,omitempty"`

	// Warnings are bundle fields that were present but unreadable.
	Warnings []string `json:"warnings,omitempty"`

	Details    Details    `json:"details"`
	Metrics    Metrics    `json:"metrics"`
	Capital    Chart      `json:"capital"`
	Technical  Chart      `json:"technical"`
	Trades     TradeTable `json:"trades"`
	Statistics Statistics `json:"statistics"`
}

// Sections lists the view's sections in page order.
func (v *View) Sections() []*Section {
	return []*Section{
		&v.Details.Section,
		&v.Metrics.Section,
		&v.Capital.Section,
		&v.Technical.Section,
		&v.Trades.Section,
		&v.Statistics.Section,
	}
}

// Failed reports whether any section hit an error.
func (v *View) Failed() bool {
	for _, s := range v.Sections() {
		if s.Err != nil {
			return true
		}
	}
	return false
}
