package ui

import (
	"fmt"

	"github.com/odyssey-erp/sales-dashboard/internal/dashboard"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/chart"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/svg"
	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
)

// Chart titles and dataset labels shown on the dashboard.
const (
	TitleDailyTrend = "Daily Sales Trend"
	TitleProduct    = "Sales by Product"
	TitleDay        = "Sales by Day of the Week"
	TitleRegion     = "Sales by Region"

	LabelDailySales = "Daily Sales"
)

// ChartSet is the adapter output for one aggregate, in display order.
type ChartSet struct {
	Daily   chart.Data `json:"daily_sales_trend"`
	Product chart.Data `json:"category_sales"`
	Day     chart.Data `json:"day_sales"`
	Region  chart.Data `json:"region_sales"`
}

// Charts reshapes an aggregate into chart-ready data.
func Charts(agg *salesapi.Aggregate) ChartSet {
	if agg == nil {
		return ChartSet{}
	}
	return ChartSet{
		Daily:   chart.Daily(agg.DailySalesTrend, LabelDailySales),
		Product: chart.Bar(agg.CategorySales, TitleProduct),
		Day:     chart.Bar(agg.DaySales, TitleDay),
		Region:  chart.Pie(agg.RegionSales, TitleRegion),
	}
}

// BuildViewModel maps a state snapshot onto the page model. KPI cards and
// chart panels appear only once an aggregate exists; each chart is rendered
// only when its series is non-empty.
func BuildViewModel(state dashboard.State, r Renderers) (DashboardViewModel, error) {
	vm := DashboardViewModel{
		Filters: DashboardFilters{
			Company:   state.Selected,
			StartDate: state.Range.Start,
			EndDate:   state.Range.End,
		},
		Loading: state.Pending(),
		Error:   state.Error,
	}
	vm.Filters.Companies = make([]CompanyOption, 0, len(state.Companies))
	for _, name := range state.Companies {
		vm.Filters.Companies = append(vm.Filters.Companies, CompanyOption{Name: name, Selected: name == state.Selected})
	}

	agg := state.Aggregate
	if agg == nil {
		return vm, nil
	}
	if r.Line == nil || r.Bar == nil || r.Pie == nil {
		return DashboardViewModel{}, fmt.Errorf("svg renderer missing")
	}

	vm.CompanyName = Sanitize(agg.CompanyName)
	vm.KPI = &DashboardKPI{
		TotalSales:             FormatTotal(agg.TotalSales),
		AvgSalesPerTransaction: FormatAverage(agg.AvgSalesPerTransaction),
		TopProduct:             Sanitize(agg.TopProduct),
	}

	set := Charts(agg)
	daily := ChartPanel{ID: "daily-sales", Title: TitleDailyTrend, Kind: chart.KindLine, FullWide: true, Data: set.Daily}
	if !set.Daily.Empty() {
		ds := set.Daily.Datasets[0]
		out, err := r.Line.Line(svg.DefaultWidth, svg.DefaultHeight, ds.Data, set.Daily.Labels, svg.LineOpts{
			Title:       TitleDailyTrend,
			Description: ds.Label,
			StrokeColor: ds.BorderColor,
			FillColor:   ds.BackgroundColor[0],
			Tension:     ds.Tension,
			ShowDots:    true,
		})
		if err != nil {
			return DashboardViewModel{}, fmt.Errorf("render %s: %w", daily.ID, err)
		}
		daily.SVG = out
	}

	product, err := barPanel(r.Bar, "product-sales", TitleProduct, set.Product)
	if err != nil {
		return DashboardViewModel{}, err
	}
	day, err := barPanel(r.Bar, "day-sales", TitleDay, set.Day)
	if err != nil {
		return DashboardViewModel{}, err
	}

	region := ChartPanel{ID: "region-sales", Title: TitleRegion, Kind: chart.KindPie, Data: set.Region}
	if !set.Region.Empty() {
		ds := set.Region.Datasets[0]
		out, err := r.Pie.Pie(svg.DefaultWidth/2, svg.DefaultHeight, ds.Data, set.Region.Labels, ds.BackgroundColor, svg.PieOpts{
			Title:       TitleRegion,
			Description: ds.Label,
			SeriesLabel: "Sales",
		})
		if err != nil {
			return DashboardViewModel{}, fmt.Errorf("render %s: %w", region.ID, err)
		}
		region.SVG = out
	}

	vm.Charts = []ChartPanel{daily, product, day, region}
	return vm, nil
}

func barPanel(r BarRenderer, id, title string, data chart.Data) (ChartPanel, error) {
	panel := ChartPanel{ID: id, Title: title, Kind: chart.KindBar, Data: data}
	if data.Empty() {
		return panel, nil
	}
	ds := data.Datasets[0]
	out, err := r.Bars(svg.DefaultWidth/2, svg.DefaultHeight, ds.Data, data.Labels, ds.BackgroundColor, svg.BarOpts{
		Title:       title,
		Description: ds.Label,
		SeriesLabel: "Sales",
	})
	if err != nil {
		return ChartPanel{}, fmt.Errorf("render %s: %w", id, err)
	}
	panel.SVG = out
	return panel, nil
}
