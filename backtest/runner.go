package backtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradedash/config"
)

var ErrNoCommand = errors.New("no backtest command configured")

// Runner executes one backtest and returns once the engine has written its
// result artifact.
type Runner interface {
	Run(ctx context.Context, req Request) error
}

// RunError carries the tail of the engine's output.
type RunError struct {
	Output string
	Err    error
}

func (e *RunError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("backtest failed: %v", e.Err)
	}
	return fmt.Sprintf("backtest failed: %v: %s", e.Err, e.Output)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

const outputTail = 2048

// ExecRunner runs the engine as a child process. The request is passed as
// flags after the configured arguments:
//
//	--symbol BTC/USDT --start 2024-01-01T00:00:00Z --end ... --capital 1000 --timeframe 4h
//
// ResultsDir, when set, is exported as TRADEDASH_RESULTS_DIR so the engine
// writes where the dashboard reads.
type ExecRunner struct {
	Command    string
	Args       []string
	Dir        string
	ResultsDir string

	logger zerolog.Logger
}

func NewExecRunner(cfg config.BacktestConfig, resultsDir string) *ExecRunner {
	return &ExecRunner{
		Command:    cfg.Command,
		Args:       cfg.Args,
		Dir:        cfg.WorkDir,
		ResultsDir: resultsDir,
		logger:     log.With().Str("component", "backtest").Logger(),
	}
}

// CommandArgs returns the full argument list for req.
func (r *ExecRunner) CommandArgs(req Request) []string {
	args := append([]string(nil), r.Args...)
	return append(args,
		"--symbol", req.Symbol,
		"--start", req.Start.Format(time.RFC3339Nano),
		"--end", req.End.Format(time.RFC3339Nano),
		"--capital", strconv.FormatFloat(req.InitialCapital, 'f', -1, 64),
		"--timeframe", req.Timeframe(),
	)
}

// Run blocks until the engine exits.
func (r *ExecRunner) Run(ctx context.Context, req Request) error {
	if r.Command == "" {
		return ErrNoCommand
	}

	cmd := exec.CommandContext(ctx, r.Command, r.CommandArgs(req)...)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	if r.ResultsDir != "" {
		cmd.Env = append(cmd.Env, config.EnvResultsDir+"="+r.ResultsDir)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	started := time.Now()
	r.logger.Info().
		Str("symbol", req.Symbol).
		Str("timeframe", req.Timeframe()).
		Time("start", req.Start).
		Time("end", req.End).
		Float64("capital", req.InitialCapital).
		Msg("running backtest")

	err := cmd.Run()
	elapsed := time.Since(started)
	if err != nil {
		r.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("backtest failed")
		return &RunError{Output: tail(out.String()), Err: err}
	}

	r.logger.Info().Dur("elapsed", elapsed).Msg("backtest finished")
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > outputTail {
		s = "..." + s[len(s)-outputTail:]
	}
	return s
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req Request) error

func (f RunnerFunc) Run(ctx context.Context, req Request) error {
	return f(ctx, req)
}
