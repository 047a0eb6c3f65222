// Package web serves the results dashboard: a run form, the rendered view
// of the newest result artifact, and JSON and CSV exports of it.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradedash/backtest"
	"github.com/rustyeddy/tradedash/config"
	"github.com/rustyeddy/tradedash/dashboard"
	"github.com/rustyeddy/tradedash/notify"
	"github.com/rustyeddy/tradedash/results"
	"github.com/rustyeddy/tradedash/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options wire a Server. Notifier may be nil.
type Options struct {
	Config   *config.Config
	Loader   *results.Loader
	Renderer *dashboard.Renderer
	Runner   backtest.Runner
	Notifier *notify.Notifier
	Store    *session.Store

	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	cfg      *config.Config
	loader   *results.Loader
	renderer *dashboard.Renderer
	runner   backtest.Runner
	notifier *notify.Notifier
	store    *session.Store
	now      func() time.Time
	wait     time.Duration

	tmpl   *template.Template
	mux    *http.ServeMux
	logger zerolog.Logger
}

var funcMap = template.FuncMap{
	"figure": func(raw json.RawMessage) template.JS { return template.JS(raw) },
	"selected": func(a, b string) template.HTMLAttr {
		if a == b {
			return "selected"
		}
		return ""
	},
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Loader == nil {
		opts.Loader = results.NewLoader(opts.Config.Results.Directory())
	}
	if opts.Renderer == nil {
		opts.Renderer = dashboard.NewRenderer()
	}
	if opts.Runner == nil {
		opts.Runner = backtest.NewExecRunner(opts.Config.Backtest, opts.Loader.Dir)
	}
	if opts.Store == nil {
		opts.Store = session.NewStore(session.New())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	wait, err := opts.Config.Results.Wait()
	if err != nil {
		return nil, fmt.Errorf("results wait: %w", err)
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:      opts.Config,
		loader:   opts.Loader,
		renderer: opts.Renderer,
		runner:   opts.Runner,
		notifier: opts.Notifier,
		store:    opts.Store,
		now:      opts.Now,
		wait:     wait,
		tmpl:     tmpl,
		mux:      http.NewServeMux(),
		logger:   log.With().Str("component", "web").Logger(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /run", s.handleRun)
	s.mux.HandleFunc("POST /reset", s.handleReset)
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /export/trades.csv", s.handleTradesCSV)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routed, request-logging handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", "http://"+addr).Msg("dashboard listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Str("component", "web").Msg("encode response")
	}
}
