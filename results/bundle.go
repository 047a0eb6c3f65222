package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Time is an optional bundle timestamp. Raw keeps what the engine wrote;
// Time is only meaningful when Valid is set.
type Time struct {
	Raw   json.RawMessage
	Time  time.Time
	Valid bool
}

// Present reports whether the field appeared in the artifact at all.
func (t Time) Present() bool {
	return len(t.Raw) > 0 && !bytes.Equal(bytes.TrimSpace(t.Raw), []byte("null"))
}

// Trade is one closed trade as written by the backtest engine. Entry and
// exit times stay raw until the annotator parses them.
type Trade struct {
	EntryTime       json.RawMessage `json:"entry_time"`
	ExitTime        json.RawMessage `json:"exit_time"`
	Type            string          `json:"type"`
	EntryPrice      float64         `json:"entry_price"`
	ExitPrice       float64         `json:"exit_price"`
	PnL             float64         `json:"pnl"`
	StopLossPrice   *float64        `json:"stop_loss_price,omitempty"`
	TakeProfitPrice *float64        `json:"take_profit_price,omitempty"`
}

// Bundle is the decoded output of one backtest run. Every field is optional;
// presence is explicit (nil pointer/map, invalid NullDecimal, !Valid Time).
type Bundle struct {
	Symbol     *string
	StartDate  Time
	EndDate    Time
	Timeframes []string

	InitialCapital decimal.NullDecimal
	FinalCapital   decimal.NullDecimal
	TotalReturn    decimal.NullDecimal
	WinRate        decimal.NullDecimal
	ProfitFactor   decimal.NullDecimal
	MaxDrawdown    decimal.NullDecimal

	TotalTrades   decimal.NullDecimal
	WinningTrades decimal.NullDecimal
	LosingTrades  decimal.NullDecimal

	BalanceHistory map[string]json.RawMessage
	Drawdown       map[string]json.RawMessage
	PriceData      map[string]json.RawMessage

	// Trades is nil when the artifact has no trades key.
	Trades []Trade

	// Source is the artifact path and ModTime its modification time; both
	// are zero for bundles decoded from memory.
	Source  string
	ModTime time.Time

	// Warnings collects fields that were present but had the wrong shape.
	Warnings []string
}

// HasTrades reports whether the artifact carried a trades list.
func (b *Bundle) HasTrades() bool {
	return b != nil && b.Trades != nil
}

// Decode parses an artifact into a Bundle. Each top-level field is decoded
// on its own, so one badly shaped field becomes a warning instead of failing
// the whole bundle.
func Decode(data []byte) (*Bundle, error) {
	data = sanitizeNonFinite(data)

	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if falsy(top) {
		return nil, ErrEmptyResult
	}
	if _, ok := top.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: top-level value is %T, want an object", ErrMalformedResult, top)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	b := &Bundle{}
	decodeField(b, fields, "symbol", &b.Symbol)
	decodeField(b, fields, "timeframes", &b.Timeframes)

	decodeField(b, fields, "initial_capital", &b.InitialCapital)
	decodeField(b, fields, "final_capital", &b.FinalCapital)
	decodeField(b, fields, "total_return", &b.TotalReturn)
	decodeField(b, fields, "win_rate", &b.WinRate)
	decodeField(b, fields, "profit_factor", &b.ProfitFactor)
	decodeField(b, fields, "max_drawdown", &b.MaxDrawdown)
	decodeField(b, fields, "total_trades", &b.TotalTrades)
	decodeField(b, fields, "winning_trades", &b.WinningTrades)
	decodeField(b, fields, "losing_trades", &b.LosingTrades)

	decodeField(b, fields, "balance_history", &b.BalanceHistory)
	decodeField(b, fields, "drawdown", &b.Drawdown)
	decodeField(b, fields, "price_data", &b.PriceData)

	b.decodeTrades(fields)

	b.StartDate = b.normalizeDate(fields, "start_date")
	b.EndDate = b.normalizeDate(fields, "end_date")

	return b, nil
}

// decodeField sets *dst only when key decodes cleanly; a failed decode
// leaves *dst at its zero value and records a warning.
func decodeField[T any](b *Bundle, fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		b.Warnings = append(b.Warnings, fmt.Sprintf("field %q ignored: %v", key, err))
		return
	}
	*dst = v
}

func (b *Bundle) decodeTrades(fields map[string]json.RawMessage) {
	raw, ok := fields["trades"]
	if !ok {
		return
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		b.Warnings = append(b.Warnings, fmt.Sprintf("field \"trades\" ignored: %v", err))
		return
	}
	if items == nil {
		// "trades": null
		return
	}

	b.Trades = make([]Trade, 0, len(items))
	for i, item := range items {
		var t Trade
		if err := json.Unmarshal(item, &t); err != nil {
			b.Warnings = append(b.Warnings, fmt.Sprintf("trade %d ignored: %v", i, err))
			continue
		}
		b.Trades = append(b.Trades, t)
	}
}

func (b *Bundle) normalizeDate(fields map[string]json.RawMessage, key string) Time {
	raw, ok := fields[key]
	if !ok {
		return Time{}
	}
	out := Time{Raw: raw}
	if !out.Present() {
		return out
	}
	t, err := Normalize(raw)
	if err != nil {
		b.Warnings = append(b.Warnings, fmt.Sprintf("field %q: %v", key, err))
		return out
	}
	out.Time = t
	out.Valid = true
	return out
}

// falsy mirrors the "empty result" notion of the engine's own tooling: null,
// empty object/array/string, zero and false all count as nothing written.
func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case string:
		return x == ""
	case float64:
		return x == 0
	case bool:
		return !x
	}
	return false
}

// sanitizeNonFinite rewrites the bare NaN, Infinity and -Infinity tokens that
// Python's json module emits into null, leaving string contents untouched.
func sanitizeNonFinite(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) && !bytes.Contains(data, []byte("Infinity")) {
		return data
	}

	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case bytes.HasPrefix(data[i:], []byte("-Infinity")):
			out = append(out, "null"...)
			i += len("-Infinity") - 1
		case bytes.HasPrefix(data[i:], []byte("Infinity")):
			out = append(out, "null"...)
			i += len("Infinity") - 1
		case bytes.HasPrefix(data[i:], []byte("NaN")):
			out = append(out, "null"...)
			i += len("NaN") - 1
		default:
			out = append(out, c)
		}
	}
	return out
}
