package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradedash/backtest"
	"github.com/rustyeddy/tradedash/config"
	"github.com/rustyeddy/tradedash/notify"
	"github.com/rustyeddy/tradedash/results"
	"github.com/rustyeddy/tradedash/session"
)

const artifact = `{
  "symbol": "BTC/USDT",
  "timeframes": ["1h"],
  "start_date": "2025-01-01",
  "end_date": "2025-01-31",
  "initial_capital": 1000,
  "final_capital": 1125,
  "total_return": 12.5,
  "win_rate": 50,
  "profit_factor": 1.8,
  "max_drawdown": -4.2,
  "balance_history": {"1735776000": 1000, "1735812000": 1010, "1735862400": 1125},
  "drawdown": {"1735776000": 0, "1735812000": -0.042, "1735862400": 0},
  "price_data": {
    "1735776000": {"open": 100, "high": 104, "low": 99, "close": 103},
    "1735812000": {"open": 103, "high": 111, "low": 102, "close": 110},
    "1735862400": {"open": 110, "high": 112, "low": 108, "close": 109}
  },
  "trades": [
    {"entry_time": "2025-01-02T10:00:00Z", "exit_time": "2025-01-02T14:00:00Z", "type": "long",
     "entry_price": 100, "exit_price": 110, "pnl": 10}
  ]
}`

var today = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) Send(_ context.Context, m notify.Message) (*notify.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, m.Text)
	return &notify.Response{OK: true}, nil
}

func newTestServer(t *testing.T, run backtest.RunnerFunc, n *notify.Notifier) (*Server, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Results.Dir = dir
	cfg.Results.WaitTimeout = "2s"
	cfg.Notify.OnRun = true

	opts := Options{
		Config:   cfg,
		Notifier: n,
		Now:      func() time.Time { return today },
	}
	if run != nil {
		opts.Runner = run
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s, dir
}

func writeResult(dir, body string) backtest.RunnerFunc {
	return func(ctx context.Context, req backtest.Request) error {
		return os.WriteFile(filepath.Join(dir, "run.json"), []byte(body), 0644)
	}
}

func runForm() url.Values {
	return url.Values{
		"symbol":     {"BTC/USDT"},
		"start_date": {"2025-01-01"},
		"end_date":   {"2025-01-31"},
		"timeframe":  {"1h"},
		"capital":    {"1000"},
	}
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexShowsIntroWhenIdle(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Run Backtest")
	assert.Contains(t, body, `value="2024-06-15"`)
	assert.Contains(t, body, `value="2025-06-15"`)
	assert.NotContains(t, body, "Key metrics")
}

func TestRunThenShowResults(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	var captured backtest.Request
	s, dir := newTestServer(t, nil, notify.NewWithTransport(rec, "chat"))
	s.runner = backtest.RunnerFunc(func(ctx context.Context, req backtest.Request) error {
		captured = req
		return writeResult(dir, artifact)(ctx, req)
	})
	h := s.Handler()

	resp := do(t, h, http.MethodPost, "/run", runForm())
	require.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/", resp.Header().Get("Location"))

	assert.Equal(t, "BTC/USDT", captured.Symbol)
	assert.Equal(t, []string{"1h"}, captured.Timeframes)
	assert.Equal(t, 1000.0, captured.InitialCapital)

	st := s.store.Get()
	assert.Equal(t, session.ShowingResults, st.Phase)
	assert.Empty(t, st.LastError)

	page := do(t, h, http.MethodGet, "/", nil)
	body := page.Body.String()
	assert.Contains(t, body, "BTC/USDT")
	assert.Contains(t, body, `id="capital-chart"`)
	assert.Contains(t, body, `id="technical-chart"`)
	assert.Equal(t, 2, strings.Count(body, "Plotly.newPlot"))
	assert.NotContains(t, body, "No capital history available")
	assert.NotContains(t, body, "No price data available")
	assert.Contains(t, body, "12.50%")

	require.Len(t, rec.texts, 1)
	assert.Contains(t, rec.texts[0], "Backtest finished")
	assert.Contains(t, rec.texts[0], "12.50%")

	reset := do(t, h, http.MethodPost, "/reset", url.Values{})
	assert.Equal(t, http.StatusSeeOther, reset.Code)
	assert.Equal(t, session.Idle, s.store.Get().Phase)
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edit  func(url.Values)
		field string
	}{
		{"unknown symbol", func(v url.Values) { v.Set("symbol", "DOGE/USDT") }, "unsupported trading pair"},
		{"future end", func(v url.Values) { v.Set("end_date", "2025-07-01") }, "may not be after today"},
		{"reversed dates", func(v url.Values) { v.Set("start_date", "2025-02-01") }, "must not be before the start date"},
		{"no timeframe", func(v url.Values) { v.Del("timeframe") }, "select a timeframe"},
		{"off step", func(v url.Values) { v.Set("capital", "150") }, "must be a multiple of 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			s, _ := newTestServer(t, func(context.Context, backtest.Request) error {
				called = true
				return nil
			}, nil)

			form := runForm()
			tt.edit(form)
			rec := do(t, s.Handler(), http.MethodPost, "/run", form)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.field)
			assert.False(t, called)
			assert.Equal(t, session.Idle, s.store.Get().Phase)
		})
	}
}

func TestRunWhileRunning(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, func(context.Context, backtest.Request) error {
		t.Error("runner must not be called")
		return nil
	}, nil)
	_, err := s.store.Update(func(st session.State) (session.State, error) { return st.Begin(today) })
	require.NoError(t, err)

	rec := do(t, s.Handler(), http.MethodPost, "/run", runForm())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already running")
}

func TestRunFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s, _ := newTestServer(t, func(context.Context, backtest.Request) error {
		return &backtest.RunError{Output: "boom", Err: errors.New("exit status 1")}
	}, notify.NewWithTransport(rec, "chat"))
	h := s.Handler()

	resp := do(t, h, http.MethodPost, "/run", runForm())
	assert.Equal(t, http.StatusSeeOther, resp.Code)

	st := s.store.Get()
	assert.Equal(t, session.Idle, st.Phase)
	assert.Contains(t, st.LastError, "exit status 1")

	page := do(t, h, http.MethodGet, "/", nil)
	assert.Contains(t, page.Body.String(), "Backtest failed")

	require.Len(t, rec.texts, 1)
	assert.Contains(t, rec.texts[0], "exit status 1")
}

func TestAPIViewStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"none", "", http.StatusNotFound},
		{"empty", `{}`, http.StatusUnprocessableEntity},
		{"malformed", `{"symbol":`, http.StatusUnprocessableEntity},
		{"ok", artifact, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, dir := newTestServer(t, nil, nil)
			if tt.body != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "r.json"), []byte(tt.body), 0644))
			}

			rec := do(t, s.Handler(), http.MethodGet, "/api/view", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), `"render_id"`)
		})
	}
}

func TestTradesCSV(t *testing.T) {
	t.Parallel()

	s, dir := newTestServer(t, nil, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/export/trades.csv", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "r.json"), []byte(artifact), 0644))
	rec = do(t, h, http.MethodGet, "/export/trades.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "entry_time,exit_time,type"))
	assert.Contains(t, lines[1], "2025-01-02T10:00:00Z")
}

func TestStateAndHealth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/state", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phase":"idle"`)
	assert.Contains(t, rec.Body.String(), s.store.Get().SessionID)
}

func TestLoadStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, loadStatus(nil))
	assert.Equal(t, http.StatusNotFound, loadStatus(results.ErrNoResultsFound))
	assert.Equal(t, http.StatusUnprocessableEntity, loadStatus(results.ErrEmptyResult))
	assert.Equal(t, http.StatusInternalServerError, loadStatus(errors.New("disk")))
}
