// Package ui maps dashboard state onto the structures the templates render.
package ui

import (
	"html/template"

	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/chart"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/svg"
)

// CompanyOption is one entry of the company select.
type CompanyOption struct {
	Name     string
	Selected bool
}

// DashboardFilters echoes the current selection back into the form.
type DashboardFilters struct {
	Companies []CompanyOption
	Company   string
	StartDate string
	EndDate   string
}

// DashboardKPI holds the headline cards, already formatted for display.
type DashboardKPI struct {
	TotalSales             string
	AvgSalesPerTransaction string
	TopProduct             string
}

// ChartPanel is one chart card. SVG is empty when the series has no points;
// the card title is still shown.
type ChartPanel struct {
	ID       string
	Title    string
	Kind     chart.Kind
	FullWide bool
	SVG      template.HTML
	Data     chart.Data
}

// HasChart reports whether the panel carries a rendered chart.
func (p ChartPanel) HasChart() bool {
	return p.SVG != ""
}

// DashboardViewModel combines everything the dashboard page needs.
type DashboardViewModel struct {
	Filters     DashboardFilters
	Loading     bool
	Error       string
	CompanyName string
	KPI         *DashboardKPI
	Charts      []ChartPanel
}

// HasData reports whether KPI cards and charts should be shown.
func (vm DashboardViewModel) HasData() bool {
	return vm.KPI != nil
}

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, values []float64, labels, colors []string, opts svg.BarOpts) (template.HTML, error)
}

// PieRenderer abstracts SVG pie chart rendering for the dashboard.
type PieRenderer interface {
	Pie(width, height int, values []float64, labels, colors []string, opts svg.PieOpts) (template.HTML, error)
}

// Renderers bundles the chart renderers used by BuildViewModel.
type Renderers struct {
	Line LineRenderer
	Bar  BarRenderer
	Pie  PieRenderer
}

// SVGRenderers returns renderers backed by the svg package.
func SVGRenderers() Renderers {
	return Renderers{Line: svgLine{}, Bar: svgBar{}, Pie: svgPie{}}
}

type svgLine struct{}

func (svgLine) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

type svgBar struct{}

func (svgBar) Bars(width, height int, values []float64, labels, colors []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, values, labels, colors, opts)
}

type svgPie struct{}

func (svgPie) Pie(width, height int, values []float64, labels, colors []string, opts svg.PieOpts) (template.HTML, error) {
	return svg.Pie(width, height, values, labels, colors, opts)
}
