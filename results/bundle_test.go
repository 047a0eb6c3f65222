package results

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBundle = `{
	"symbol": "BTC/USDT",
	"start_date": "2024-01-01T00:00:00+00:00",
	"end_date": "2024-03-31 23:59:59",
	"timeframes": ["4h"],
	"initial_capital": 1000,
	"final_capital": 1125.5,
	"total_return": 12.55,
	"win_rate": 60,
	"profit_factor": 1.8,
	"max_drawdown": -4.2,
	"total_trades": 5,
	"winning_trades": 3,
	"losing_trades": 2,
	"balance_history": {"1700000000": 1000, "1700003600": 1050},
	"drawdown": {"1700000000": {"drawdown": -0.05}},
	"price_data": {"1700000000": {"open": 1, "high": 2, "low": 0.5, "close": 1.5}},
	"trades": [
		{"entry_time": "2024-01-02 10:00:00", "exit_time": "2024-01-03 10:00:00", "type": "long",
		 "entry_price": 100, "exit_price": 110, "pnl": 10, "stop_loss_price": 95}
	]
}`

func TestDecodeFullBundle(t *testing.T) {
	t.Parallel()

	b, err := Decode([]byte(sampleBundle))
	require.NoError(t, err)

	require.NotNil(t, b.Symbol)
	assert.Equal(t, "BTC/USDT", *b.Symbol)
	assert.Equal(t, []string{"4h"}, b.Timeframes)

	require.True(t, b.StartDate.Valid)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(b.StartDate.Time))
	require.True(t, b.EndDate.Valid)
	assert.True(t, time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC).Equal(b.EndDate.Time))

	require.True(t, b.InitialCapital.Valid)
	assert.Equal(t, "1000", b.InitialCapital.Decimal.String())
	assert.Equal(t, "1125.5", b.FinalCapital.Decimal.String())
	assert.Equal(t, "-4.2", b.MaxDrawdown.Decimal.String())
	assert.Equal(t, int64(5), b.TotalTrades.Decimal.IntPart())

	assert.Len(t, b.BalanceHistory, 2)
	assert.Len(t, b.Drawdown, 1)
	assert.Len(t, b.PriceData, 1)

	require.True(t, b.HasTrades())
	require.Len(t, b.Trades, 1)
	tr := b.Trades[0]
	assert.Equal(t, "long", tr.Type)
	assert.Equal(t, 100.0, tr.EntryPrice)
	require.NotNil(t, tr.StopLossPrice)
	assert.Equal(t, 95.0, *tr.StopLossPrice)
	assert.Nil(t, tr.TakeProfitPrice)

	assert.Empty(t, b.Warnings)
}

func TestDecodePartialBundle(t *testing.T) {
	t.Parallel()

	b, err := Decode([]byte(`{"symbol": "ETH/USDT"}`))
	require.NoError(t, err)

	assert.False(t, b.StartDate.Present())
	assert.False(t, b.StartDate.Valid)
	assert.False(t, b.InitialCapital.Valid)
	assert.Nil(t, b.BalanceHistory)
	assert.Nil(t, b.Timeframes)
	assert.False(t, b.HasTrades())
}

func TestDecodeBadFieldsBecomeWarnings(t *testing.T) {
	t.Parallel()

	b, err := Decode([]byte(`{
		"symbol": 42,
		"start_date": "%%%",
		"balance_history": [1, 2, 3],
		"initial_capital": "abc",
		"trades": [{"type": "long", "entry_price": "cheap"}, {"type": "short", "entry_price": 5}]
	}`))
	require.NoError(t, err)

	assert.Nil(t, b.Symbol)
	assert.True(t, b.StartDate.Present())
	assert.False(t, b.StartDate.Valid)
	assert.Nil(t, b.BalanceHistory)
	assert.False(t, b.InitialCapital.Valid)
	require.Len(t, b.Trades, 1)
	assert.Equal(t, "short", b.Trades[0].Type)

	assert.Len(t, b.Warnings, 5)
}

func TestDecodeEmptyAndMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{"empty object", `{}`, ErrEmptyResult},
		{"null", `null`, ErrEmptyResult},
		{"empty array", `[]`, ErrEmptyResult},
		{"zero", `0`, ErrEmptyResult},
		{"array", `[1, 2]`, ErrMalformedResult},
		{"broken json", `{"symbol": `, ErrMalformedResult},
		{"empty file", ``, ErrMalformedResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Decode([]byte(tt.data))
			assert.Nil(t, b)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodePythonNonFinite(t *testing.T) {
	t.Parallel()

	b, err := Decode([]byte(`{"symbol": "NaN Infinity", "profit_factor": Infinity, "max_drawdown": NaN, "total_return": -Infinity}`))
	require.NoError(t, err)

	require.NotNil(t, b.Symbol)
	assert.Equal(t, "NaN Infinity", *b.Symbol)
	assert.False(t, b.ProfitFactor.Valid)
	assert.False(t, b.MaxDrawdown.Valid)
	assert.False(t, b.TotalReturn.Valid)
}

func TestSanitizeNonFiniteKeepsEscapes(t *testing.T) {
	t.Parallel()

	in := `{"a": "say \"NaN\"", "b": NaN}`
	assert.Equal(t, `{"a": "say \"NaN\"", "b": null}`, string(sanitizeNonFinite([]byte(in))))
}

func TestDecodeWrongShapeLeavesFieldAbsent(t *testing.T) {
	t.Parallel()

	b, err := Decode([]byte(`{
		"symbol": ["BTC/USDT"],
		"total_return": "abc",
		"initial_capital": {"x": 1},
		"win_rate": 55,
		"timeframes": "4h"
	}`))
	require.NoError(t, err)

	assert.Nil(t, b.Symbol)
	assert.False(t, b.TotalReturn.Valid)
	assert.False(t, b.InitialCapital.Valid)
	assert.Nil(t, b.Timeframes)
	require.True(t, b.WinRate.Valid)
	assert.Equal(t, "55", b.WinRate.Decimal.String())
	assert.Len(t, b.Warnings, 4)
}
