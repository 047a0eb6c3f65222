package web

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tradedash/backtest"
	"github.com/rustyeddy/tradedash/dashboard"
	"github.com/rustyeddy/tradedash/market"
	"github.com/rustyeddy/tradedash/report"
	"github.com/rustyeddy/tradedash/results"
	"github.com/rustyeddy/tradedash/session"
)

const dateLayout = "2006-01-02"

// formValues are the sidebar fields as last submitted.
type formValues struct {
	Symbol    string
	StartDate string
	EndDate   string
	Timeframe string
	Capital   string
}

type page struct {
	State  session.State
	Form   formValues
	Errors backtest.ValidationError
	Notice string

	Symbols    []string
	Timeframes []string
	MinCapital float64
	MaxCapital float64
	Step       float64
	Today      string

	// View is nil until a run has completed.
	View *dashboard.View
}

func (s *Server) defaultForm() formValues {
	today := s.now()
	return formValues{
		Symbol:    market.DefaultSymbol,
		StartDate: today.AddDate(0, 0, -s.cfg.UI.LookbackDays).Format(dateLayout),
		EndDate:   today.Format(dateLayout),
		Capital:   strconv.FormatFloat(s.cfg.UI.DefaultCapital, 'f', -1, 64),
	}
}

func (s *Server) newPage(st session.State, f formValues) page {
	ui := s.cfg.UI
	return page{
		State:      st,
		Form:       f,
		Symbols:    ui.Symbols,
		Timeframes: ui.Timeframes,
		MinCapital: ui.MinCapital,
		MaxCapital: ui.MaxCapital,
		Step:       ui.CapitalStep,
		Today:      s.now().Format(dateLayout),
	}
}

// latest loads and renders the newest artifact. Load failures become a
// view carrying only the error.
func (s *Server) latest() (dashboard.View, error) {
	b, err := s.loader.Load()
	if err != nil {
		s.logger.Error().Err(err).Str("dir", s.loader.Dir).Msg("load results")
		return dashboard.Failed("", err), err
	}
	return s.renderer.Build(b), nil
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", p); err != nil {
		s.logger.Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.store.Get()
	p := s.newPage(st, s.defaultForm())
	if st.ShowResults() {
		v, _ := s.latest()
		p.View = &v
	}
	s.render(w, http.StatusOK, p)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	f := formValues{
		Symbol:    r.PostForm.Get("symbol"),
		StartDate: r.PostForm.Get("start_date"),
		EndDate:   r.PostForm.Get("end_date"),
		Timeframe: r.PostForm.Get("timeframe"),
		Capital:   r.PostForm.Get("capital"),
	}

	req, err := backtest.NewRequest(backtest.Form(f), backtest.LimitsFrom(s.cfg.UI), s.now())
	if err != nil {
		p := s.newPage(s.store.Get(), f)
		if !errors.As(err, &p.Errors) {
			p.Notice = err.Error()
		}
		s.render(w, http.StatusBadRequest, p)
		return
	}

	started := s.now()
	if _, err := s.store.Update(func(st session.State) (session.State, error) { return st.Begin(started) }); err != nil {
		p := s.newPage(s.store.Get(), f)
		p.Notice = "A backtest is already running."
		s.render(w, http.StatusConflict, p)
		return
	}

	// the run is not tied to the request; a closed tab does not stop it
	ctx := context.WithoutCancel(r.Context())
	v, runErr := s.execute(ctx, req, started)
	if runErr != nil {
		_, _ = s.store.Update(func(st session.State) (session.State, error) { return st.Fail(s.now(), runErr) })
		s.notifyFailure(ctx, req, runErr)
	} else {
		_, _ = s.store.Update(func(st session.State) (session.State, error) { return st.Complete(s.now()) })
		s.notifySuccess(ctx, req, v)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// execute runs the engine and waits for the artifact it writes.
func (s *Server) execute(ctx context.Context, req backtest.Request, started time.Time) (dashboard.View, error) {
	if err := s.runner.Run(ctx, req); err != nil {
		return dashboard.View{}, err
	}
	b, err := s.loader.WaitForFresh(ctx, started, s.wait)
	if err != nil {
		return dashboard.View{}, fmt.Errorf("waiting for results: %w", err)
	}
	return s.renderer.Build(b), nil
}

func (s *Server) notifySuccess(ctx context.Context, req backtest.Request, v dashboard.View) {
	if s.notifier == nil || !s.cfg.Notify.OnRun {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>✅ Backtest finished</b>\n%s %s\n", html.EscapeString(req.Symbol), html.EscapeString(req.Timeframe()))
	for _, c := range v.Metrics.Cards {
		fmt.Fprintf(&b, "<b>%s:</b> %s\n", c.Label, c.Value)
	}
	s.notifier.Send(ctx, b.String())
}

func (s *Server) notifyFailure(ctx context.Context, req backtest.Request, err error) {
	if s.notifier == nil || !s.cfg.Notify.OnRun {
		return
	}
	s.notifier.SendError(ctx, err.Error(), req.Symbol+" "+req.Timeframe())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, _ = s.store.Update(func(st session.State) (session.State, error) {
		if st.Phase == session.Running {
			return st, &session.TransitionError{From: st.Phase, To: session.Idle}
		}
		return st.Reset(), nil
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := s.latest()
	respondJSON(w, loadStatus(err), v)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.store.Get()
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": st.SessionID,
		"phase":      st.Phase.String(),
		"last_run":   st.LastRun,
		"last_error": st.LastError,
	})
}

func (s *Server) handleTradesCSV(w http.ResponseWriter, r *http.Request) {
	v, err := s.latest()
	if err != nil {
		http.Error(w, v.Error, loadStatus(err))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)
	if err := report.WriteTradesCSV(w, v.Trades.Rows); err != nil {
		s.logger.Error().Err(err).Msg("write trades csv")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func loadStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, results.ErrNoResultsFound):
		return http.StatusNotFound
	case errors.Is(err, results.ErrEmptyResult), errors.Is(err, results.ErrMalformedResult):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
