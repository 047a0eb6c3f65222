package results

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoResultsFound means the results directory holds no *.json artifact.
	ErrNoResultsFound = errors.New("no backtest results found")

	// ErrEmptyResult means the newest artifact decoded to an empty value.
	ErrEmptyResult = errors.New("backtest result is empty")

	// ErrMalformedResult means the newest artifact is not a JSON object.
	ErrMalformedResult = errors.New("backtest result is malformed")
)

// NormalizationError reports a timestamp that could not be coerced into a
// time. It keeps the original raw value so callers can say which point was
// dropped.
type NormalizationError struct {
	Raw any
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("parse timestamp %s: %v", describeRaw(e.Raw), e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

func describeRaw(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("%q", string(v))
	case json.RawMessage:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
