package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []float64{500, 600}, []string{"Widget", "Gadget"}, []string{"#2ecc71", "#3498db"}, BarOpts{
		Title:       "Sales by Product",
		Description: "Sales by Product",
		SeriesLabel: "Sales",
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<rect") != 2 {
		t.Fatalf("expected one rect per bar")
	}
	if !strings.Contains(output, "fill=\"#2ecc71\"") || !strings.Contains(output, "fill=\"#3498db\"") {
		t.Fatalf("expected per-bar colours")
	}
	if !strings.Contains(output, "Widget") {
		t.Fatalf("expected category label")
	}
}

func TestBarsFallsBackWhenColoursMissing(t *testing.T) {
	html, err := Bars(420, 220, []float64{1, -2}, []string{"a", "b"}, nil, BarOpts{})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	if strings.Count(string(html), "fill=\""+defaultBarColor+"\"") != 2 {
		t.Fatalf("expected default colour for each bar")
	}
}

func TestBarsRejectsMismatchedInput(t *testing.T) {
	if _, err := Bars(420, 220, []float64{1}, []string{"a", "b"}, nil, BarOpts{}); err == nil {
		t.Fatalf("expected error for label mismatch")
	}
}
