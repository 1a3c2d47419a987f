// Package export writes dashboard aggregates to downloadable formats.
package export

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
)

// WriteAggregateCSV serialises the aggregate as consecutive CSV sections
// separated by blank lines: KPI summary, daily trend, then each breakdown in
// the order the API returned its keys.
func WriteAggregateCSV(w io.Writer, company string, r salesapi.DateRange, agg *salesapi.Aggregate) error {
	writer := csv.NewWriter(w)
	if err := writeKPI(writer, company, r, agg); err != nil {
		return err
	}
	if err := writeDaily(writer, agg.DailySalesTrend); err != nil {
		return err
	}
	sections := []struct {
		header string
		data   salesapi.Breakdown
	}{
		{"Product", agg.CategorySales},
		{"Day", agg.DaySales},
		{"Region", agg.RegionSales},
	}
	for _, section := range sections {
		if err := writeBreakdown(writer, section.header, section.data); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeKPI(writer *csv.Writer, company string, r salesapi.DateRange, agg *salesapi.Aggregate) error {
	if agg.CompanyName != "" {
		company = agg.CompanyName
	}
	records := [][]string{
		{"Metric", "Value"},
		{"Company", company},
		{"Start Date", r.Start},
		{"End Date", r.End},
		{"Total Sales", formatAmount(agg.TotalSales)},
		{"Avg Sales per Transaction", formatAmount(agg.AvgSalesPerTransaction)},
		{"Top Product", agg.TopProduct},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeDaily(writer *csv.Writer, points []salesapi.DailySales) error {
	if err := writer.Write(nil); err != nil {
		return err
	}
	if err := writer.Write([]string{"Date", "Sales"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{point.Date, formatAmount(point.Sales)}); err != nil {
			return err
		}
	}
	return nil
}

func writeBreakdown(writer *csv.Writer, header string, b salesapi.Breakdown) error {
	if err := writer.Write(nil); err != nil {
		return err
	}
	if err := writer.Write([]string{header, "Sales"}); err != nil {
		return err
	}
	for _, entry := range b {
		if err := writer.Write([]string{entry.Key, formatAmount(entry.Value)}); err != nil {
			return err
		}
	}
	return nil
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
