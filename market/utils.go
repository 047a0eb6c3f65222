package market

import (
	"fmt"
	"time"
)

// Timeframes are the candle intervals the backtest engine understands, in
// display order.
var Timeframes = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d"}

// TimeframeDuration maps a timeframe identifier to its candle length.
func TimeframeDuration(tf string) (time.Duration, error) {
	switch tf {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

// IsTimeframe reports whether tf is one of the given timeframe identifiers.
func IsTimeframe(tf string, allowed []string) bool {
	for _, a := range allowed {
		if a == tf {
			return true
		}
	}
	return false
}
