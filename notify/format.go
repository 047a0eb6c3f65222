package notify

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	separator  = "━━━━━━━━━━━━━━━"
)

var signalEmoji = map[string]string{
	"buy":        "🟢",
	"sell":       "🔴",
	"valley_buy": "💚",
	"top_sell":   "❤️",
	"hold":       "⚪",
}

// Decisions the signal engine emits in a summary.
const (
	DecisionLong  = "📈 LONG"
	DecisionShort = "📉 SHORT"
	DecisionWait  = "⏳ WAIT"
)

var decisionEmoji = map[string]string{
	DecisionLong:  "🚀",
	DecisionShort: "🔻",
	DecisionWait:  "⏳",
}

// Signal is one per-timeframe trading signal.
type Signal struct {
	Timeframe      string
	Name           string
	Strength       float64
	Price          float64
	AdditionalInfo string
}

// OrderBook is the top of book attached to a summary.
type OrderBook struct {
	Bid float64
	Ask float64
	Mid float64
}

// Summary is the combined decision across timeframes.
type Summary struct {
	BuyWeight  float64
	SellWeight float64
	Decision   string
	OrderBook  *OrderBook
}

// FormatMessage returns a plain message unchanged; the text may already
// carry HTML markup.
func FormatMessage(text string) string {
	return text
}

// FormatSignal renders a trading signal.
func FormatSignal(now time.Time, s Signal) string {
	emoji, ok := signalEmoji[s.Name]
	if !ok {
		emoji = "⚠️"
	}

	var b strings.Builder
	b.WriteString("\n<b>🤖 Trading Signal</b>\n")
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "⏰ <b>Date:</b> %s\n", now.Format(timeLayout))
	fmt.Fprintf(&b, "📊 <b>Timeframe:</b> %s\n", html.EscapeString(s.Timeframe))
	fmt.Fprintf(&b, "%s <b>Signal:</b> %s\n", emoji, html.EscapeString(strings.ToUpper(s.Name)))
	fmt.Fprintf(&b, "💪 <b>Strength:</b> %.2f\n", s.Strength)
	fmt.Fprintf(&b, "💵 <b>Price:</b> $%.2f\n", s.Price)

	if s.AdditionalInfo != "" {
		fmt.Fprintf(&b, "\nℹ️ <b>Additional info:</b>\n%s", html.EscapeString(s.AdditionalInfo))
	}
	return b.String()
}

// FormatSummary renders the final decision and, when known, the order book.
func FormatSummary(now time.Time, s Summary) string {
	emoji, ok := decisionEmoji[s.Decision]
	if !ok {
		emoji = "❓"
	}

	var b strings.Builder
	b.WriteString("\n<b>📊 Trading Summary</b>\n")
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "⏰ <b>Date:</b> %s\n", now.Format(timeLayout))
	fmt.Fprintf(&b, "📈 <b>Buy weight:</b> %.2f\n", s.BuyWeight)
	fmt.Fprintf(&b, "📉 <b>Sell weight:</b> %.2f\n", s.SellWeight)
	fmt.Fprintf(&b, "%s <b>Decision:</b> %s\n", emoji, html.EscapeString(s.Decision))

	if ob := s.OrderBook; ob != nil {
		b.WriteString("\n📚 <b>Order Book:</b>\n")
		fmt.Fprintf(&b, "💰 Bid: $%.2f\n", ob.Bid)
		fmt.Fprintf(&b, "💰 Ask: $%.2f\n", ob.Ask)
		fmt.Fprintf(&b, "📊 Mid: $%.2f\n", ob.Mid)
	}
	return b.String()
}

// FormatError renders an error notification. detail is optional.
func FormatError(now time.Time, msg, detail string) string {
	var b strings.Builder
	b.WriteString("\n❌ <b>Bot Error</b>\n")
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "⏰ <b>Date:</b> %s\n", now.Format(timeLayout))
	fmt.Fprintf(&b, "🔴 <b>Error:</b> %s\n", html.EscapeString(msg))

	if detail != "" {
		fmt.Fprintf(&b, "📝 <b>Context:</b> %s", html.EscapeString(detail))
	}
	return b.String()
}
