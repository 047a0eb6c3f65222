package results

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DirName is the folder the backtest engine writes into under the temp dir.
const DirName = "trading_bot_results"

// DefaultDir returns $TEMP/trading_bot_results, falling back to the
// platform temp directory when TEMP is unset.
func DefaultDir() string {
	base := os.Getenv("TEMP")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, DirName)
}

// Artifact is one candidate result file.
type Artifact struct {
	Path    string
	ModTime time.Time
}

// Loader finds and decodes the newest result artifact in a directory.
type Loader struct {
	Dir string

	logger zerolog.Logger
}

// NewLoader returns a Loader for dir, or for DefaultDir when dir is empty.
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Loader{
		Dir:    dir,
		logger: log.With().Str("component", "loader").Str("dir", dir).Logger(),
	}
}

// List returns every *.json artifact in the directory. A missing directory
// is an empty listing, not an error.
func (l *Loader) List() ([]Artifact, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read results directory %s: %w", l.Dir, err)
	}

	var out []Artifact
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, Artifact{
			Path:    filepath.Join(l.Dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

// Latest returns the artifact with the greatest modification time. Ties go
// to the lexicographically greatest file name.
func (l *Loader) Latest() (Artifact, error) {
	arts, err := l.List()
	if err != nil {
		return Artifact{}, err
	}
	if len(arts) == 0 {
		return Artifact{}, fmt.Errorf("%w in %s", ErrNoResultsFound, l.Dir)
	}

	best := arts[0]
	for _, a := range arts[1:] {
		if a.ModTime.After(best.ModTime) ||
			(a.ModTime.Equal(best.ModTime) && filepath.Base(a.Path) > filepath.Base(best.Path)) {
			best = a
		}
	}
	return best, nil
}

// Load decodes the newest artifact.
func (l *Loader) Load() (*Bundle, error) {
	a, err := l.Latest()
	if err != nil {
		l.logger.Error().Err(err).Msg("no result artifact")
		return nil, err
	}

	b, err := LoadFile(a.Path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", a.Path).Msg("load result artifact")
		return nil, err
	}
	b.ModTime = a.ModTime

	for _, w := range b.Warnings {
		l.logger.Warn().Str("file", a.Path).Msg(w)
	}
	l.logger.Debug().Str("file", a.Path).Time("modified", a.ModTime).Msg("loaded result artifact")
	return b, nil
}

// LoadFile decodes a specific artifact.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}

	b, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	b.Source = path
	if info, err := os.Stat(path); err == nil {
		b.ModTime = info.ModTime()
	}
	return b, nil
}

// DefaultWait bounds WaitForFresh when no explicit limit is given.
const DefaultWait = 10 * time.Second

var errStale = fmt.Errorf("%w: nothing written since the run started", ErrNoResultsFound)

// WaitForFresh polls until an artifact modified at or after since is present
// and decodes cleanly, backing off exponentially for at most maxWait. It is
// used right after a backtest run, when the engine may still be flushing
// its output.
func (l *Loader) WaitForFresh(ctx context.Context, since time.Time, maxWait time.Duration) (*Bundle, error) {
	// file systems with coarse mtimes can stamp a fresh file slightly earlier
	cutoff := since.Truncate(time.Second)
	if maxWait <= 0 {
		maxWait = DefaultWait
	}

	var bundle *Bundle
	op := func() error {
		a, err := l.Latest()
		if err != nil {
			if errors.Is(err, ErrNoResultsFound) {
				return err
			}
			return backoff.Permanent(err)
		}
		if a.ModTime.Before(cutoff) {
			return errStale
		}

		b, err := LoadFile(a.Path)
		if err != nil {
			if errors.Is(err, ErrMalformedResult) || errors.Is(err, ErrEmptyResult) {
				// partially written, try again
				return err
			}
			return backoff.Permanent(err)
		}
		b.ModTime = a.ModTime
		bundle = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = maxWait

	notify := func(err error, next time.Duration) {
		l.logger.Debug().Err(err).Dur("retry_in", next).Msg("waiting for result artifact")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return bundle, nil
}
