package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Epoch seconds beyond year 9999 are rejected rather than producing
// nonsense instants.
const maxEpochSeconds = 253402300799

var errEmptyTimestamp = errors.New("empty timestamp")

// Normalize coerces a raw timestamp into a UTC time.
//
// Numbers (and strings that are entirely a number) are seconds since the
// epoch. Other strings are cut at the first '+', trimmed, and parsed as a
// generic date-time; zone-less values are taken as UTC. A time.Time passes
// through. Anything else is formatted and parsed generically.
//
// Failures come back as *NormalizationError; Normalize never panics.
func Normalize(raw any) (t time.Time, err error) {
	return coerce(raw, true)
}

// ParsePlain is the simpler parse used for trade entry and exit times. It
// does not strip offset suffixes, so "+02:00" is honoured.
func ParsePlain(raw any) (time.Time, error) {
	return coerce(raw, false)
}

func coerce(raw any, stripOffset bool) (t time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = time.Time{}
			err = &NormalizationError{Raw: raw, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	t, err = coerceValue(raw, stripOffset)
	if err != nil {
		return time.Time{}, &NormalizationError{Raw: raw, Err: err}
	}
	return t.UTC(), nil
}

func coerceValue(raw any, stripOffset bool) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, errEmptyTimestamp
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, errEmptyTimestamp
		}
		return *v, nil
	case float64:
		return fromEpoch(v)
	case float32:
		return fromEpoch(float64(v))
	case int:
		return fromEpoch(float64(v))
	case int32:
		return fromEpoch(float64(v))
	case int64:
		return fromEpoch(float64(v))
	case uint32:
		return fromEpoch(float64(v))
	case uint64:
		return fromEpoch(float64(v))
	case json.Number:
		return parseString(v.String(), stripOffset)
	case string:
		return parseString(v, stripOffset)
	case json.RawMessage:
		return coerceJSON(v, stripOffset)
	case []byte:
		return coerceJSON(v, stripOffset)
	default:
		return parseGeneric(fmt.Sprint(v))
	}
}

// coerceJSON decodes a raw JSON scalar and coerces the decoded value.
func coerceJSON(data []byte, stripOffset bool) (time.Time, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return time.Time{}, errEmptyTimestamp
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return time.Time{}, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return time.Time{}, fmt.Errorf("timestamp is not a scalar: %s", string(data))
	case bool:
		return time.Time{}, fmt.Errorf("timestamp is a boolean")
	}
	return coerceValue(v, stripOffset)
}

func parseString(s string, stripOffset bool) (time.Time, error) {
	if stripOffset {
		if i := strings.IndexByte(s, '+'); i >= 0 {
			s = s[:i]
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}

	if f, ok := numeric(s); ok {
		return fromEpoch(f)
	}
	return parseGeneric(s)
}

func parseGeneric(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// dateparse reads some junk, such as "1.2.3", as a date in year 0
	if y := t.UTC().Year(); y < 1 || y > 9999 {
		return time.Time{}, fmt.Errorf("parsed %q as year %d, out of range", s, y)
	}
	return t, nil
}

// numeric reports whether s is a plain decimal number (no exponent, no
// NaN/Inf spellings).
func numeric(s string) (float64, bool) {
	digits := 0
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
		case c == '-' && i == 0:
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func fromEpoch(sec float64) (time.Time, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return time.Time{}, fmt.Errorf("epoch seconds not finite: %v", sec)
	}
	if math.Abs(sec) > maxEpochSeconds {
		return time.Time{}, fmt.Errorf("epoch seconds out of range: %v", sec)
	}
	whole := math.Floor(sec)
	nanos := math.Round((sec - whole) * 1e9)
	return time.Unix(int64(whole), int64(nanos)).UTC(), nil
}
