// Package series turns the keyed-by-timestamp maps of a result bundle into
// time-ordered sequences and derives trade markers for the price chart.
package series

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/tradedash/results"
)

// Point is one normalized sample.
type Point[T any] struct {
	Time  time.Time
	Value T
}

// Series is the ordered output of Build. Present is false when the source
// mapping did not exist; a present series may still have no points if every
// entry was malformed.
type Series[T any] struct {
	Points   []Point[T]
	Warnings []string
	Present  bool
}

// Empty reports whether the series has no usable points.
func (s Series[T]) Empty() bool {
	return len(s.Points) == 0
}

// Absent reports whether the source mapping was missing altogether.
func (s Series[T]) Absent() bool {
	return !s.Present
}

// Times returns the point timestamps in order.
func (s Series[T]) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}

// Values returns the point values in order.
func (s Series[T]) Values() []T {
	out := make([]T, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Extractor coerces one raw mapping value into the series value type.
type Extractor[T any] func(raw json.RawMessage) (T, error)

type keyed[T any] struct {
	key string
	pt  Point[T]
}

// Build normalizes every key of m, applies extract to every value and
// returns the surviving points sorted by time. Points whose key or value
// cannot be read are skipped with a warning. Build never fails; a nil map
// yields an absent series and an empty map an empty one.
//
// Duplicate instants are kept; they are ordered by their raw key.
func Build[T any](m map[string]json.RawMessage, extract Extractor[T]) Series[T] {
	s := Series[T]{Present: m != nil}
	if len(m) == 0 {
		return s
	}

	pts := make([]keyed[T], 0, len(m))
	for key, raw := range m {
		ts, err := results.Normalize(key)
		if err != nil {
			s.Warnings = append(s.Warnings, err.Error())
			continue
		}
		v, err := extract(raw)
		if err != nil {
			s.Warnings = append(s.Warnings, fmt.Sprintf("value at %q: %v", key, err))
			continue
		}
		pts = append(pts, keyed[T]{key: key, pt: Point[T]{Time: ts, Value: v}})
	}

	sort.Slice(pts, func(i, j int) bool {
		if !pts[i].pt.Time.Equal(pts[j].pt.Time) {
			return pts[i].pt.Time.Before(pts[j].pt.Time)
		}
		return pts[i].key < pts[j].key
	})
	sort.Strings(s.Warnings)

	s.Points = make([]Point[T], len(pts))
	for i, p := range pts {
		s.Points[i] = p.pt
	}
	return s
}
