package salesapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdownKeepsObjectOrder(t *testing.T) {
	var b Breakdown
	require.NoError(t, json.Unmarshal([]byte(`{"Wednesday": 3, "Monday": 1, "Sunday": 7}`), &b))
	assert.Equal(t, []string{"Wednesday", "Monday", "Sunday"}, b.Keys())
	assert.Equal(t, []float64{3, 1, 7}, b.Values())

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"Wednesday":3,"Monday":1,"Sunday":7}`, string(raw))
}

func TestBreakdownNullAndEmpty(t *testing.T) {
	var payload struct {
		A Breakdown `json:"a"`
		B Breakdown `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": null, "b": {}}`), &payload))
	assert.Nil(t, payload.A)
	assert.NotNil(t, payload.B)
	assert.Empty(t, payload.B)
}

func TestAggregateCloneIsDeep(t *testing.T) {
	agg := &Aggregate{
		DailySalesTrend: []DailySales{{Date: "2024-01-01", Sales: 1}},
		RegionSales:     Breakdown{{Key: "North", Value: 1}},
	}
	clone := agg.Clone()
	clone.DailySalesTrend[0].Sales = 99
	clone.RegionSales[0].Value = 99

	assert.Equal(t, 1.0, agg.DailySalesTrend[0].Sales)
	assert.Equal(t, 1.0, agg.RegionSales[0].Value)
	assert.Nil(t, (*Aggregate)(nil).Clone())
}
