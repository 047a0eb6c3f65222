package series

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradedash/results"
)

// TradeType is the direction of a trade.
type TradeType int

const (
	Long TradeType = iota + 1
	Short
)

func (t TradeType) String() string {
	switch t {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("TradeType(%d)", int(t))
	}
}

// ParseTradeType accepts "long" and "short" in any case.
func ParseTradeType(s string) (TradeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown trade type %q", s)
	}
}

// Marker is a point on the price chart. Exit markers never carry stop-loss
// or take-profit levels.
type Marker struct {
	Time       time.Time
	Price      float64
	StopLoss   *float64
	TakeProfit *float64
}

// ClosedTrade is a trade whose type and times passed validation.
type ClosedTrade struct {
	Index int
	Type  TradeType
	Entry time.Time
	Exit  time.Time
	results.Trade
}

// Duration is the holding time of the trade.
func (c ClosedTrade) Duration() time.Duration {
	return c.Exit.Sub(c.Entry)
}

// IntegrityError describes a trade that was left off the chart.
type IntegrityError struct {
	Index  int
	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trade %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("trade %d: %s", e.Index, e.Reason)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Annotations are the chart overlays derived from a trade list.
type Annotations struct {
	LongEntries  []Marker
	ShortEntries []Marker
	Exits        []Marker

	// Trades holds the validated trades in input order.
	Trades []ClosedTrade

	// Issues lists every trade that was rejected.
	Issues []error
}

// Annotate splits trades into long entries, short entries and exits. Each
// valid trade adds exactly one entry marker and one exit marker. Trades with
// an unknown type, an unreadable time, or an exit before the entry are
// rejected into Issues.
func Annotate(trades []results.Trade) Annotations {
	var a Annotations

	for i, tr := range trades {
		ct, err := validate(i, tr)
		if err != nil {
			a.Issues = append(a.Issues, err)
			continue
		}

		entry := Marker{
			Time:       ct.Entry,
			Price:      tr.EntryPrice,
			StopLoss:   tr.StopLossPrice,
			TakeProfit: tr.TakeProfitPrice,
		}
		switch ct.Type {
		case Long:
			a.LongEntries = append(a.LongEntries, entry)
		case Short:
			a.ShortEntries = append(a.ShortEntries, entry)
		}
		a.Exits = append(a.Exits, Marker{Time: ct.Exit, Price: tr.ExitPrice})
		a.Trades = append(a.Trades, ct)
	}
	return a
}

func validate(i int, tr results.Trade) (ClosedTrade, error) {
	typ, err := ParseTradeType(tr.Type)
	if err != nil {
		return ClosedTrade{}, &IntegrityError{Index: i, Reason: "invalid type", Err: err}
	}
	entry, err := results.ParsePlain(tr.EntryTime)
	if err != nil {
		return ClosedTrade{}, &IntegrityError{Index: i, Reason: "bad entry_time", Err: err}
	}
	exit, err := results.ParsePlain(tr.ExitTime)
	if err != nil {
		return ClosedTrade{}, &IntegrityError{Index: i, Reason: "bad exit_time", Err: err}
	}
	if exit.Before(entry) {
		return ClosedTrade{}, &IntegrityError{
			Index:  i,
			Reason: fmt.Sprintf("exit %s before entry %s", exit.Format(time.RFC3339), entry.Format(time.RFC3339)),
		}
	}
	return ClosedTrade{Index: i, Type: typ, Entry: entry, Exit: exit, Trade: tr}, nil
}
