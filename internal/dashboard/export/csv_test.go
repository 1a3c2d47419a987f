package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
)

func TestWriteAggregateCSV(t *testing.T) {
	agg := &salesapi.Aggregate{
		TotalSales:             5000,
		AvgSalesPerTransaction: 25.5,
		TopProduct:             "Widget",
		DailySalesTrend:        []salesapi.DailySales{{Date: "2024-01-01", Sales: 100}},
		CategorySales:          salesapi.Breakdown{{Key: "Widget", Value: 70}, {Key: "Gadget", Value: 30}},
		DaySales:               salesapi.Breakdown{},
		RegionSales:            salesapi.Breakdown{{Key: "North", Value: 100}},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteAggregateCSV(buf, "Acme", salesapi.DateRange{Start: "2024-01-01", End: "2024-01-31"}, agg))

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Metric", "Value"}, records[0])
	assert.Equal(t, []string{"Company", "Acme"}, records[1])
	assert.Equal(t, []string{"Total Sales", "5000.00"}, records[4])
	assert.Equal(t, []string{"Avg Sales per Transaction", "25.50"}, records[5])

	body := buf.String()
	assert.Contains(t, body, "Date,Sales\n2024-01-01,100.00\n")
	assert.Contains(t, body, "Product,Sales\nWidget,70.00\nGadget,30.00\n")
	assert.Contains(t, body, "Day,Sales\n\nRegion,Sales\nNorth,100.00\n")
}

func TestWriteAggregateCSVPrefersCompanyName(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteAggregateCSV(buf, "acme", salesapi.DateRange{}, &salesapi.Aggregate{CompanyName: "Acme Corp"}))
	assert.Contains(t, buf.String(), "Company,Acme Corp\n")
}
