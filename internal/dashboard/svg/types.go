// Package svg renders dashboard charts as inline, accessible SVG.
package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	Tension     float64
	TickCount   int
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	SeriesLabel string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	SeriesLabel string
	TextColor   string
	Padding     float64
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 28.0
	DefaultTicks   = 5
)

const (
	defaultAxisColor = "#475569"
	defaultGridColor = "#cbd5e1"
	defaultBarColor  = "#3498db"
)
