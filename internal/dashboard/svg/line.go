package svg

import (
	"fmt"
	"html/template"
	"strings"
)

type point struct{ x, y float64 }

// Line renders a line chart for series against labels. A positive Tension
// draws a cubic spline through the points instead of straight segments.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
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
	strokeColor := fallback(opts.StrokeColor, "#3498db")
	fillColor := fallback(opts.FillColor, "rgba(52, 152, 219, 0.2)")
	axisColor := fallback(opts.AxisColor, defaultAxisColor)
	gridColor := fallback(opts.GridColor, defaultGridColor)

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := axisRange(series)
	scale := chartHeight / (maxVal - minVal)
	step := 0.0
	if len(series) > 1 {
		step = chartWidth / float64(len(series)-1)
	}
	xAt := func(i int) float64 {
		if len(series) == 1 {
			return padding + chartWidth/2
		}
		return padding + float64(i)*step
	}

	points := make([]point, len(series))
	for i, value := range series {
		points[i] = point{x: xAt(i), y: padding + chartHeight - (value-minVal)*scale}
	}
	path := linePath(points, opts.Tension)

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Line chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Trend data")))

	writeGrid(&b, padding, chartWidth, chartHeight, minVal, maxVal, tickCount, axisColor, gridColor)

	fmt.Fprintf(&b, "<g stroke=\"%s\" aria-label=\"Axes\">", axisColor)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+chartHeight)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding+chartHeight, padding+chartWidth, padding+chartHeight)
	b.WriteString("</g>")

	base := padding + chartHeight
	area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path, points[len(points)-1].x, base, points[0].x, base)
	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fillColor)
	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path, strokeColor)

	if opts.ShowDots {
		for i, p := range points {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s: %s</title></circle>", p.x, p.y, strokeColor, template.HTMLEscapeString(labels[i]), formatTick(series[i]))
		}
	}

	stride := labelStride(len(labels), chartWidth)
	for i, label := range labels {
		if i%stride != 0 {
			continue
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", xAt(i), padding+chartHeight+14, axisColor, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func linePath(points []point, tension float64) string {
	var path strings.Builder
	fmt.Fprintf(&path, "M%.2f %.2f", points[0].x, points[0].y)
	for i := 1; i < len(points); i++ {
		if tension <= 0 {
			fmt.Fprintf(&path, " L%.2f %.2f", points[i].x, points[i].y)
			continue
		}
		prev := points[max(i-2, 0)]
		from := points[i-1]
		to := points[i]
		next := points[min(i+1, len(points)-1)]
		c1 := point{x: from.x + (to.x-prev.x)*tension/2, y: from.y + (to.y-prev.y)*tension/2}
		c2 := point{x: to.x - (next.x-from.x)*tension/2, y: to.y - (next.y-from.y)*tension/2}
		fmt.Fprintf(&path, " C%.2f %.2f %.2f %.2f %.2f %.2f", c1.x, c1.y, c2.x, c2.y, to.x, to.y)
	}
	return path.String()
}
