package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rustyeddy/tradedash/market"
)

// Balance reads a plain numeric capital value.
func Balance(raw json.RawMessage) (float64, error) {
	return number(raw)
}

// DrawdownValue reads a drawdown sample. The engine writes either a bare
// number or a record; for records the "drawdown" field is used and a missing
// field counts as zero.
func DrawdownValue(raw json.RawMessage) (float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return 0, err
		}
		v, ok := rec["drawdown"]
		if !ok {
			return 0, nil
		}
		return number(v)
	}
	return number(trimmed)
}

var ohlcKeys = map[string]bool{"open": true, "high": true, "low": true, "close": true}

// PriceBar reads one price record. Open, high, low and close are required;
// volume is optional; every other numeric field is kept as an indicator.
// Indicator columns set to null are kept as NaN so column presence survives
// indicator warm-up periods.
func PriceBar(raw json.RawMessage) (market.Bar, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rec); err != nil {
		return market.Bar{}, fmt.Errorf("price record: %w", err)
	}
	if rec == nil {
		return market.Bar{}, fmt.Errorf("price record is null")
	}

	var (
		bar market.Bar
		err error
	)
	if bar.Open, err = field(rec, "open"); err != nil {
		return market.Bar{}, err
	}
	if bar.High, err = field(rec, "high"); err != nil {
		return market.Bar{}, err
	}
	if bar.Low, err = field(rec, "low"); err != nil {
		return market.Bar{}, err
	}
	if bar.Close, err = field(rec, "close"); err != nil {
		return market.Bar{}, err
	}

	for k, v := range rec {
		if ohlcKeys[k] {
			continue
		}
		if isNull(v) {
			if k != "volume" {
				if bar.Indicators == nil {
					bar.Indicators = make(map[string]float64)
				}
				bar.Indicators[k] = math.NaN()
			}
			continue
		}
		f, err := number(v)
		if err != nil {
			// non-numeric annotations such as signal labels
			continue
		}
		if k == "volume" {
			vol := f
			bar.Volume = &vol
			continue
		}
		if bar.Indicators == nil {
			bar.Indicators = make(map[string]float64)
		}
		bar.Indicators[k] = f
	}
	return bar, nil
}

func field(rec map[string]json.RawMessage, key string) (float64, error) {
	v, ok := rec[key]
	if !ok {
		return 0, fmt.Errorf("price record missing %q", key)
	}
	f, err := number(v)
	if err != nil {
		return 0, fmt.Errorf("price record %q: %w", key, err)
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// number accepts JSON numbers and numeric strings.
func number(raw json.RawMessage) (float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || isNull(trimmed) {
		return 0, fmt.Errorf("missing value")
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not a finite number: %q", s)
		}
		return f, nil
	}

	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(trimmed))
	}
	return f, nil
}
