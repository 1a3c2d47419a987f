package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders one bar per label, each filled with the colour at the same
// index. Missing colours fall back to a neutral blue.
func Bars(width, height int, values []float64, labels, colors []string, opts BarOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	axisColor := fallback(opts.AxisColor, defaultAxisColor)
	gridColor := fallback(opts.GridColor, defaultGridColor)
	seriesLabel := fallback(opts.SeriesLabel, "Value")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := axisRange(values)
	scale := chartHeight / (maxVal - minVal)
	zeroY := padding + chartHeight - (0-minVal)*scale
	chartBottom := padding + chartHeight

	slot := chartWidth / float64(len(labels))
	barWidth := slot * 0.6

	titleID := makeID(opts.Title, "bar-title")
	descID := makeID(opts.Title, "bar-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Bar chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Category comparison")))

	writeGrid(&b, padding, chartWidth, chartHeight, minVal, maxVal, tickCount, axisColor, gridColor)

	fmt.Fprintf(&b, "<g stroke=\"%s\" aria-label=\"Axes\">", axisColor)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, chartBottom)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, zeroY, padding+chartWidth, zeroY)
	b.WriteString("</g>")

	for i, label := range labels {
		x := padding + float64(i)*slot + (slot-barWidth)/2
		y, h := barPosition(values[i], scale, zeroY, padding, chartBottom)
		color := sliceColor(colors, i)
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" stroke=\"#cbd5e1\" stroke-width=\"0.5\"><title>%s %s: %s</title></rect>",
			x, y, barWidth, h, color, template.HTMLEscapeString(seriesLabel), template.HTMLEscapeString(label), formatTick(values[i]))
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x+barWidth/2, chartBottom+14, axisColor, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, padding, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < padding {
			height -= padding - y
			y = padding
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
