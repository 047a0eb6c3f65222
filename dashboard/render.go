// Package dashboard composes a backtest result into the sections of the
// results page: run details, headline metrics, the capital and technical
// charts, the trade log and the detailed statistics.
//
// Rendering never fails as a whole. Each section is built behind its own
// boundary; an error or panic inside one section is recorded on that
// section and the others are still built.
package dashboard

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradedash/market"
	"github.com/rustyeddy/tradedash/pkg/id"
	"github.com/rustyeddy/tradedash/results"
	"github.com/rustyeddy/tradedash/series"
)

// Input is everything one render pass consumes.
type Input struct {
	Bundle   *results.Bundle
	Balance  series.Series[float64]
	Drawdown series.Series[float64]
	Price    series.Series[market.Bar]
	Trades   series.Annotations
	RenderID string
}

// NewInput derives the series and trade annotations of b.
func NewInput(b *results.Bundle) Input {
	if b == nil {
		b = &results.Bundle{}
	}
	return Input{
		Bundle:   b,
		Balance:  series.Build(b.BalanceHistory, series.Balance),
		Drawdown: series.Build(b.Drawdown, series.DrawdownValue),
		Price:    series.Build(b.PriceData, series.PriceBar),
		Trades:   series.Annotate(b.Trades),
	}
}

type sectionFunc func(in Input, v *View) error

type section struct {
	name  string
	title string
	pick  func(v *View) *Section
	build sectionFunc
}

// Renderer builds views. It holds no per-run state; series are recomputed
// on every call.
type Renderer struct {
	logger   zerolog.Logger
	sections []section
}

func NewRenderer() *Renderer {
	return &Renderer{
		logger: log.With().Str("component", "dashboard").Logger(),
		sections: []section{
			{"details", "Backtest details", func(v *View) *Section { return &v.Details.Section }, buildDetails},
			{"metrics", "Key metrics", func(v *View) *Section { return &v.Metrics.Section }, buildMetrics},
			{"capital", "Capital evolution", func(v *View) *Section { return &v.Capital.Section }, buildCapital},
			{"technical", "Technical analysis", func(v *View) *Section { return &v.Technical.Section }, buildTechnical},
			{"trades", "Trade log", func(v *View) *Section { return &v.Trades.Section }, buildTrades},
			{"statistics", "Detailed statistics", func(v *View) *Section { return &v.Statistics.Section }, buildStatistics},
		},
	}
}

// Build derives the series of b and renders them.
func (r *Renderer) Build(b *results.Bundle) View {
	return r.Render(NewInput(b))
}

// Render builds every section of the view from in.
func (r *Renderer) Render(in Input) View {
	if in.Bundle == nil {
		in.Bundle = &results.Bundle{}
	}
	if in.RenderID == "" {
		in.RenderID = id.New()
	}
	logger := r.logger.With().Str("render_id", in.RenderID).Logger()

	v := View{
		RenderID: in.RenderID,
		Source:   in.Bundle.Source,
		ModTime:  in.Bundle.ModTime,
		Warnings: in.Bundle.Warnings,
	}
	for _, s := range r.sections {
		sec := s.pick(&v)
		sec.Name, sec.Title = s.name, s.title
		guard(sec, func() error { return s.build(in, &v) })

		switch {
		case sec.Err != nil:
			logger.Error().Err(sec.Err).Str("section", s.name).Msg("section failed")
		case len(sec.Warnings) > 0:
			logger.Warn().Str("section", s.name).Int("warnings", len(sec.Warnings)).Msg("skipped unreadable data")
		}
	}

	logger.Debug().Str("source", v.Source).Bool("failed", v.Failed()).Msg("rendered")
	return v
}

// guard runs build and records a returned error or a panic on sec.
func guard(sec *Section, build func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			sec.fail(fmt.Errorf("panic: %v", rec))
		}
	}()
	if err := build(); err != nil {
		sec.fail(err)
	}
}

// Failed returns a view that only carries a load failure.
func Failed(renderID string, err error) View {
	if renderID == "" {
		renderID = id.New()
	}
	return View{RenderID: renderID, Error: Message(err)}
}

// Message is the user-facing text for a load failure.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, results.ErrNoResultsFound):
		return "No backtest results are available yet. Run a backtest to create one."
	case errors.Is(err, results.ErrEmptyResult):
		return "The latest results file is empty."
	case errors.Is(err, results.ErrMalformedResult):
		return fmt.Sprintf("The latest results file could not be read: %v", err)
	default:
		return fmt.Sprintf("Error loading results: %v", err)
	}
}
