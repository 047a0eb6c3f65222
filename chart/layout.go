package chart

import "time"

// Layout is the figure layout. Only the second row's axes are optional.
type Layout struct {
	Title      *Title  `json:"title,omitempty"`
	Height     int     `json:"height,omitempty"`
	ShowLegend bool    `json:"showlegend"`
	Legend     *Legend `json:"legend,omitempty"`

	XAxis  *Axis `json:"xaxis,omitempty"`
	XAxis2 *Axis `json:"xaxis2,omitempty"`
	YAxis  *Axis `json:"yaxis,omitempty"`
	YAxis2 *Axis `json:"yaxis2,omitempty"`

	Shapes      []Shape      `json:"shapes,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Legend struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	XAnchor string  `json:"xanchor,omitempty"`
	YAnchor string  `json:"yanchor,omitempty"`
}

type Axis struct {
	Title          *Title       `json:"title,omitempty"`
	TickFormat     string       `json:"tickformat,omitempty"`
	Range          []float64    `json:"range,omitempty"`
	Domain         []float64    `json:"domain,omitempty"`
	Anchor         string       `json:"anchor,omitempty"`
	Matches        string       `json:"matches,omitempty"`
	ShowTickLabels *bool        `json:"showticklabels,omitempty"`
	RangeSlider    *RangeSlider `json:"rangeslider,omitempty"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

// Shape is a line drawn in data or paper coordinates. X0 and X1 hold either
// paper fractions or chart times.
type Shape struct {
	Type string  `json:"type"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   any     `json:"x0"`
	X1   any     `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line *Line   `json:"line,omitempty"`
}

type Annotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XAnchor   string  `json:"xanchor,omitempty"`
	YAnchor   string  `json:"yanchor,omitempty"`
	ShowArrow bool    `json:"showarrow"`
}

// TwoRow lays out two stacked rows sharing one time axis. top is the
// fraction of the height given to the first row and spacing the gap
// between the rows.
func TwoRow(title string, height int, top, spacing float64) Layout {
	split := 1 - top
	hidden := false
	return Layout{
		Title:      &Title{Text: title},
		Height:     height,
		ShowLegend: true,
		XAxis:      &Axis{Anchor: "y", Matches: "x2", ShowTickLabels: &hidden},
		XAxis2:     &Axis{Anchor: "y2"},
		YAxis:      &Axis{Anchor: "x", Domain: []float64{split + spacing/2, 1}},
		YAxis2:     &Axis{Anchor: "x2", Domain: []float64{0, split - spacing/2}},
	}
}

// HLine draws a horizontal reference line across the first row with a
// label at its right end.
func (l *Layout) HLine(y float64, color, dash, label string) {
	l.Shapes = append(l.Shapes, Shape{
		Type: "line",
		XRef: "paper",
		YRef: "y",
		X0:   0,
		X1:   1,
		Y0:   y,
		Y1:   y,
		Line: &Line{Color: color, Width: 1, Dash: dash},
	})
	if label != "" {
		l.Annotations = append(l.Annotations, Annotation{
			Text:    label,
			XRef:    "paper",
			YRef:    "y",
			X:       1,
			Y:       y,
			XAnchor: "right",
			YAnchor: "bottom",
		})
	}
}

// Segment draws a dashed horizontal guide at y from t to t+d in the first
// row.
func (l *Layout) Segment(t time.Time, d time.Duration, y float64, color string) {
	l.Shapes = append(l.Shapes, Shape{
		Type: "line",
		XRef: "x",
		YRef: "y",
		X0:   t.UTC().Format(TimeLayout),
		X1:   t.Add(d).UTC().Format(TimeLayout),
		Y0:   y,
		Y1:   y,
		Line: &Line{Color: color, Width: 1, Dash: "dash"},
	})
}
