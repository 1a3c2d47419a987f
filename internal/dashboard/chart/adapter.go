// Package chart reshapes sales aggregates into chart-ready structures. The
// output mirrors the Chart.js data object so it can be served as JSON as-is.
package chart

import (
	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
)

// Kind names the renderer a Data value is meant for.
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
	KindPie  Kind = "pie"
)

// Line series styling.
const (
	LineBorderColor = "#3498db"
	LineFillColor   = "rgba(52, 152, 219, 0.2)"
	LineTension     = 0.4
)

// BarPalette colours bar segments, cycling by index.
var BarPalette = []string{"#2ecc71", "#3498db", "#f1c40f", "#e74c3c", "#9b59b6", "#34495e", "#ecf0f1"}

// PiePalette colours pie slices, cycling by index.
var PiePalette = []string{"#e74c3c", "#f1c40f", "#3498db", "#2ecc71", "#9b59b6"}

// Dataset is one series of a chart.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
}

// Data is the renderer input: labels plus aligned datasets.
type Data struct {
	Kind     Kind      `json:"type"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Empty reports whether there is nothing to plot.
func (d Data) Empty() bool {
	return len(d.Labels) == 0
}

// Daily turns the daily trend into a line series, keeping input order.
func Daily(points []salesapi.DailySales, label string) Data {
	labels := make([]string, 0, len(points))
	values := make([]float64, 0, len(points))
	for _, point := range points {
		labels = append(labels, point.Date)
		values = append(values, point.Sales)
	}
	return Data{
		Kind:   KindLine,
		Labels: labels,
		Datasets: []Dataset{{
			Label:           label,
			Data:            values,
			BackgroundColor: []string{LineFillColor},
			BorderColor:     LineBorderColor,
			Tension:         LineTension,
		}},
	}
}

// Bar turns a breakdown into a single bar series coloured from BarPalette.
func Bar(b salesapi.Breakdown, label string) Data {
	return categorical(KindBar, b, label, BarPalette)
}

// Pie turns a breakdown into a single pie series coloured from PiePalette.
func Pie(b salesapi.Breakdown, label string) Data {
	return categorical(KindPie, b, label, PiePalette)
}

func categorical(kind Kind, b salesapi.Breakdown, label string, palette []string) Data {
	values := b.Values()
	return Data{
		Kind:   kind,
		Labels: b.Keys(),
		Datasets: []Dataset{{
			Label:           label,
			Data:            values,
			BackgroundColor: Colors(palette, len(values)),
		}},
	}
}

// Colors assigns palette[i % len(palette)] to each of n positions.
func Colors(palette []string, n int) []string {
	colors := make([]string, n)
	if len(palette) == 0 {
		return colors
	}
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}
