// market/instruments.go
package market

// Symbols is the fixed set of pairs the dashboard offers for a backtest run.
var Symbols = []string{
	"BTC/USDT",
	"ETH/USDT",
	"TAO/USDT",
	"XRP/USDT",
	"SOL/USDT",
}

// DefaultSymbol is preselected in the symbol selector.
const DefaultSymbol = "BTC/USDT"

// IsSymbol reports whether s is one of the supported pairs.
func IsSymbol(s string) bool {
	for _, sym := range Symbols {
		if sym == s {
			return true
		}
	}
	return false
}
