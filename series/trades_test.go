package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradedash/results"
)

func quoted(s string) json.RawMessage { return json.RawMessage(fmt.Sprintf("%q", s)) }

func ptr(f float64) *float64 { return &f }

func TestAnnotateShortTrade(t *testing.T) {
	t.Parallel()

	a := Annotate([]results.Trade{{
		EntryTime:  quoted("2024-01-01 00:00:00"),
		ExitTime:   quoted("2024-01-01 04:00:00"),
		Type:       "short",
		EntryPrice: 100,
		ExitPrice:  90,
	}})

	assert.Empty(t, a.LongEntries)
	require.Len(t, a.ShortEntries, 1)
	assert.Equal(t, 100.0, a.ShortEntries[0].Price)
	require.Len(t, a.Exits, 1)
	assert.Equal(t, 90.0, a.Exits[0].Price)
	assert.Empty(t, a.Issues)

	require.Len(t, a.Trades, 1)
	assert.Equal(t, 4*time.Hour, a.Trades[0].Duration())
	assert.Equal(t, Short, a.Trades[0].Type)
}

func TestAnnotateLongCarriesLevels(t *testing.T) {
	t.Parallel()

	a := Annotate([]results.Trade{{
		EntryTime:       quoted("2024-01-01T00:00:00Z"),
		ExitTime:        quoted("2024-01-02T00:00:00Z"),
		Type:            "long",
		EntryPrice:      100,
		ExitPrice:       120,
		StopLossPrice:   ptr(95),
		TakeProfitPrice: ptr(120),
	}})

	require.Len(t, a.LongEntries, 1)
	m := a.LongEntries[0]
	require.NotNil(t, m.StopLoss)
	require.NotNil(t, m.TakeProfit)
	assert.Equal(t, 95.0, *m.StopLoss)
	assert.Equal(t, 120.0, *m.TakeProfit)

	require.Len(t, a.Exits, 1)
	assert.Nil(t, a.Exits[0].StopLoss)
	assert.Nil(t, a.Exits[0].TakeProfit)
}

func TestAnnotatePartitions(t *testing.T) {
	t.Parallel()

	types := []string{"long", "short", "LONG", "short", "long"}
	var trades []results.Trade
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, typ := range types {
		entry := start.Add(time.Duration(i) * time.Hour)
		trades = append(trades, results.Trade{
			EntryTime:  quoted(entry.Format(time.RFC3339)),
			ExitTime:   quoted(entry.Add(30 * time.Minute).Format(time.RFC3339)),
			Type:       typ,
			EntryPrice: float64(100 + i),
			ExitPrice:  float64(101 + i),
		})
	}

	a := Annotate(trades)
	assert.Len(t, a.LongEntries, 3)
	assert.Len(t, a.ShortEntries, 2)
	assert.Len(t, a.Exits, len(trades))
	assert.Equal(t, len(trades), len(a.LongEntries)+len(a.ShortEntries))
	assert.Empty(t, a.Issues)

	empty := Annotate(nil)
	assert.Empty(t, empty.LongEntries)
	assert.Empty(t, empty.ShortEntries)
	assert.Empty(t, empty.Exits)
}

func TestAnnotateRejectsBadTrades(t *testing.T) {
	t.Parallel()

	good := results.Trade{
		EntryTime: quoted("2024-01-01 00:00:00"),
		ExitTime:  quoted("2024-01-01 01:00:00"),
		Type:      "long",
	}

	unknown := good
	unknown.Type = "hedge"

	backwards := good
	backwards.EntryTime, backwards.ExitTime = good.ExitTime, good.EntryTime

	badTime := good
	badTime.ExitTime = quoted("%%%")

	missing := good
	missing.EntryTime = nil

	a := Annotate([]results.Trade{good, unknown, backwards, badTime, missing})

	assert.Len(t, a.LongEntries, 1)
	assert.Empty(t, a.ShortEntries)
	assert.Len(t, a.Exits, 1)
	require.Len(t, a.Issues, 4)

	var ierr *IntegrityError
	require.True(t, errors.As(a.Issues[0], &ierr))
	assert.Equal(t, 1, ierr.Index)
	assert.Equal(t, "invalid type", ierr.Reason)

	require.True(t, errors.As(a.Issues[1], &ierr))
	assert.Equal(t, 2, ierr.Index)
	assert.Contains(t, ierr.Error(), "before entry")

	var nerr *results.NormalizationError
	assert.True(t, errors.As(a.Issues[2], &nerr))
	assert.True(t, errors.As(a.Issues[3], &nerr))
}

func TestParseTradeType(t *testing.T) {
	t.Parallel()

	typ, err := ParseTradeType(" Long ")
	require.NoError(t, err)
	assert.Equal(t, Long, typ)
	assert.Equal(t, "long", typ.String())

	typ, err = ParseTradeType("short")
	require.NoError(t, err)
	assert.Equal(t, "short", typ.String())

	_, err = ParseTradeType("buy")
	assert.Error(t, err)
}
