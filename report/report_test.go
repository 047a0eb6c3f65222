package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradedash/dashboard"
	"github.com/rustyeddy/tradedash/results"
)

const bundle = `{
	"symbol": "SOL/USDT",
	"start_date": "2024-03-01 00:00:00",
	"end_date": "2024-03-31 23:59:59",
	"timeframes": ["1h"],
	"initial_capital": 5000,
	"final_capital": 5400,
	"total_return": 8,
	"win_rate": 100,
	"profit_factor": 2.5,
	"max_drawdown": -1.25,
	"total_trades": 1,
	"winning_trades": 1,
	"losing_trades": 0,
	"trades": [{"entry_time": "2024-03-15 10:30:00", "exit_time": "2024-03-16 12:00:00",
		"type": "long", "entry_price": 100.123, "exit_price": 110, "pnl": 400, "stop_loss_price": 95}]
}`

func view(t *testing.T) dashboard.View {
	t.Helper()
	b, err := results.Decode([]byte(bundle))
	require.NoError(t, err)
	b.Source = "/tmp/trading_bot_results/run.json"
	return dashboard.NewRenderer().Build(b)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, view(t))
	out := buf.String()

	assert.Contains(t, out, " Backtest Result")
	assert.Contains(t, out, "Symbol:        SOL/USDT")
	assert.Contains(t, out, "Period:        2024-03-01 00:00 to 2024-03-31 23:59")
	assert.Contains(t, out, "Total return:  8.00%")
	assert.Contains(t, out, "Final capital:   $5,400.00")
	assert.Contains(t, out, "1d 01:30:00")
	assert.NotContains(t, out, "Observations")
}

func TestPrintSummaryLoadError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, dashboard.Failed("", results.ErrNoResultsFound))
	assert.Contains(t, buf.String(), "Error:         No backtest results")
	assert.NotContains(t, buf.String(), "Key Metrics")
}

func TestWriteTradesCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, view(t).Trades.Rows))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, TradeHeader, records[0])
	assert.Equal(t, []string{
		"2024-03-15T10:30:00Z", "2024-03-16T12:00:00Z", "long",
		"100.12", "110.00", "400.00", "95.00", "", "1d 01:30:00",
	}, records[1])
}

func TestWriteTradesCSVEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, nil))
	assert.Equal(t, strings.Join(TradeHeader, ",")+"\n", buf.String())
}

func TestFormatOrg(t *testing.T) {
	t.Parallel()

	v := view(t)
	v.ModTime = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	out, err := FormatOrg(v)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "* BACKTEST: SOL/USDT 1h\n"))
	assert.Contains(t, out, ":PROPERTIES:")
	assert.Contains(t, out, ":RENDER_ID:   "+v.RenderID)
	assert.Contains(t, out, ":CREATED:     [2024-04-01 Mon 09:00]")
	assert.Contains(t, out, "| Profit factor | 2.50 |")
	assert.Contains(t, out, "- Initial capital: *$5,000.00*")
	assert.Contains(t, out, "| long | 2024-03-15 10:30:00 | 2024-03-16 12:00:00 | 100.12 | 110.00 | 400.00 | 1d 01:30:00 |")
}

func TestWriteOrg(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, WriteOrg(path, dashboard.Failed("01J", results.ErrEmptyResult)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Load failed: The latest results file is empty.")
}
