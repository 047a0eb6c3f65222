package chart

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumbersWriteNullForNonFinite(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Numbers{1.5, math.NaN(), math.Inf(1), -2})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, null, -2]`, string(b))
}

func TestTimesFormat(t *testing.T) {
	t.Parallel()

	ts := Times{time.Unix(1700000000, 0)}
	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `["2023-11-14 22:13:20"]`, string(b))
}

func TestTwoRowSharesAxis(t *testing.T) {
	t.Parallel()

	l := TwoRow("Capital", 600, 0.7, 0.05)
	require.NotNil(t, l.YAxis)
	require.NotNil(t, l.YAxis2)
	assert.Equal(t, "x2", l.XAxis.Matches)
	assert.InDelta(t, 0.325, l.YAxis.Domain[0], 1e-9)
	assert.InDelta(t, 0.275, l.YAxis2.Domain[1], 1e-9)
	assert.Less(t, l.YAxis2.Domain[1], l.YAxis.Domain[0])

	tr := Scatter("dd", nil, nil).OnRow(2)
	assert.Equal(t, "x2", tr.XAxis)
	assert.Equal(t, "y2", tr.YAxis)
}

func TestShapes(t *testing.T) {
	t.Parallel()

	var l Layout
	l.HLine(1000, "gray", "dash", "Initial capital")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Segment(start, 24*time.Hour, 95, "red")

	require.Len(t, l.Shapes, 2)
	require.Len(t, l.Annotations, 1)
	assert.Equal(t, "paper", l.Shapes[0].XRef)
	assert.Equal(t, 1000.0, l.Shapes[0].Y0)
	assert.Equal(t, "2024-01-02 00:00:00", l.Shapes[1].X1)
	assert.Equal(t, "dash", l.Shapes[1].Line.Dash)
}

func TestFigureJSON(t *testing.T) {
	t.Parallel()

	x := Times{time.Unix(0, 0)}
	f := &Figure{Layout: Layout{ShowLegend: true}}
	f.Add(Candlestick("Price", x, Numbers{1}, Numbers{2}, Numbers{0.5}, Numbers{1.5}))

	b, err := f.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	data := decoded["data"].([]any)
	require.Len(t, data, 1)
	trace := data[0].(map[string]any)
	assert.Equal(t, "candlestick", trace["type"])
	assert.NotContains(t, trace, "y")
}
