// Package chart is a small Plotly figure model. Figures are built on the
// server and serialized to the JSON shape plotly.js expects; the browser
// does the drawing.
package chart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// TimeLayout is the date format plotly.js reads without timezone handling.
const TimeLayout = "2006-01-02 15:04:05"

// Times is an x axis of instants.
type Times []time.Time

func (ts Times) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, t := range ts {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(t.UTC().Format(TimeLayout)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Numbers is a y axis. NaN and infinities are written as null, which
// plotly.js draws as gaps.
type Numbers []float64

func (ns Numbers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, n := range ns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(n, 'f', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Figure is one chart.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Add appends traces and returns the figure for chaining.
func (f *Figure) Add(traces ...Trace) *Figure {
	f.Data = append(f.Data, traces...)
	return f
}

// JSON encodes the figure for plotly.js.
func (f *Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

// Trace is a scatter, bar or candlestick series.
type Trace struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`

	X Times   `json:"x"`
	Y Numbers `json:"y,omitempty"`

	Open  Numbers `json:"open,omitempty"`
	High  Numbers `json:"high,omitempty"`
	Low   Numbers `json:"low,omitempty"`
	Close Numbers `json:"close,omitempty"`

	Mode         string   `json:"mode,omitempty"`
	Fill         string   `json:"fill,omitempty"`
	Text         []string `json:"text,omitempty"`
	TextPosition string   `json:"textposition,omitempty"`
	Marker       *Marker  `json:"marker,omitempty"`
	Line         *Line    `json:"line,omitempty"`
	ShowLegend   *bool    `json:"showlegend,omitempty"`

	XAxis string `json:"xaxis,omitempty"`
	YAxis string `json:"yaxis,omitempty"`
}

// OnRow places the trace in the given row of a TwoRow layout.
func (t Trace) OnRow(row int) Trace {
	if row == 2 {
		t.XAxis, t.YAxis = "x2", "y2"
	} else {
		t.XAxis, t.YAxis = "x", "y"
	}
	return t
}

// Marker styles trace points. Color is a single color string or one color
// per point.
type Marker struct {
	Symbol string `json:"symbol,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  any    `json:"color,omitempty"`
}

// Line styles lines and shape outlines.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

// Scatter returns a line trace.
func Scatter(name string, x Times, y Numbers) Trace {
	return Trace{Type: "scatter", Name: name, X: x, Y: y, Mode: "lines"}
}

// Markers returns a points-with-labels trace.
func Markers(name string, x Times, y Numbers, labels []string) Trace {
	return Trace{Type: "scatter", Name: name, X: x, Y: y, Mode: "markers+text", Text: labels}
}

// Bar returns a bar trace.
func Bar(name string, x Times, y Numbers) Trace {
	return Trace{Type: "bar", Name: name, X: x, Y: y}
}

// Candlestick returns an OHLC trace.
func Candlestick(name string, x Times, open, high, low, close Numbers) Trace {
	return Trace{Type: "candlestick", Name: name, X: x, Open: open, High: high, Low: low, Close: close}
}
