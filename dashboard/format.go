package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	periodLayout = "2006-01-02 15:04"
	timeLayout   = "2006-01-02 15:04:05"

	notAvailable = "n/a"
)

// Money formats f as dollars with thousands separators: $1,234.56.
func Money(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return notAvailable
	}
	return moneyString(decimal.NewFromFloat(f))
}

func moneyString(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + "." + frac
}

func moneyOr(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}
	return moneyString(d.Decimal)
}

func percentOr(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}
	return d.Decimal.StringFixed(2) + "%"
}

func ratioOr(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}
	return d.Decimal.StringFixed(2)
}

func countOr(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}
	return d.Decimal.String()
}

// FormatDuration renders a holding time as "2d 04:30:00", dropping the day
// part when it is zero.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if days > 0 {
		return fmt.Sprintf("%s%dd %02d:%02d:%02d", sign, days, h, m, s)
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

func round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
