package salesapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// DateRange bounds a dashboard query. Start after End is passed through untouched.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DailySales is one point of the daily trend series.
type DailySales struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Sales float64 `json:"sales"`
}

// Aggregate is the precomputed sales summary for a company and date range.
type Aggregate struct {
	CompanyName            string       `json:"company_name,omitempty"`
	TotalSales             float64      `json:"total_sales"`
	AvgSalesPerTransaction float64      `json:"avg_sales_per_transaction"`
	TopProduct             string       `json:"top_product"`
	DailySalesTrend        []DailySales `json:"daily_sales_trend" validate:"dive"`
	CategorySales          Breakdown    `json:"category_sales"`
	DaySales               Breakdown    `json:"day_sales"`
	RegionSales            Breakdown    `json:"region_sales"`
}

// Clone returns a deep copy so callers never share slices with view state.
func (a *Aggregate) Clone() *Aggregate {
	if a == nil {
		return nil
	}
	out := *a
	if a.DailySalesTrend != nil {
		out.DailySalesTrend = make([]DailySales, len(a.DailySalesTrend))
		copy(out.DailySalesTrend, a.DailySalesTrend)
	}
	out.CategorySales = a.CategorySales.Clone()
	out.DaySales = a.DaySales.Clone()
	out.RegionSales = a.RegionSales.Clone()
	return &out
}

// Entry is a single key/value pair of a Breakdown.
type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Breakdown is a category to total mapping that keeps the key order of the
// JSON object it was decoded from.
type Breakdown []Entry

var errBreakdownShape = errors.New("breakdown must be a JSON object")

// UnmarshalJSON decodes a JSON object preserving member order. A null member
// value decodes as zero.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errBreakdownShape
	}
	entries := Breakdown{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errBreakdownShape
		}
		var value *float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("breakdown %q: %w", key, err)
		}
		entry := Entry{Key: key}
		if value != nil {
			entry.Value = *value
		}
		entries = append(entries, entry)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = entries
	return nil
}

// MarshalJSON encodes the breakdown back into an object in the same order.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(entry.Value, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys returns the keys in enumeration order.
func (b Breakdown) Keys() []string {
	keys := make([]string, 0, len(b))
	for _, entry := range b {
		keys = append(keys, entry.Key)
	}
	return keys
}

// Values returns the values aligned with Keys.
func (b Breakdown) Values() []float64 {
	values := make([]float64, 0, len(b))
	for _, entry := range b {
		values = append(values, entry.Value)
	}
	return values
}

// Clone copies the breakdown, keeping nil as nil.
func (b Breakdown) Clone() Breakdown {
	if b == nil {
		return nil
	}
	out := make(Breakdown, len(b))
	copy(out, b)
	return out
}
