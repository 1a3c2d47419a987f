package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders one slice per label with a legend on the right. Negative values
// are drawn as empty slices but still listed in the legend.
func Pie(width, height int, values []float64, labels, colors []string, opts PieOpts) (template.HTML, error) {
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
	textColor := fallback(opts.TextColor, defaultAxisColor)
	seriesLabel := fallback(opts.SeriesLabel, "Value")

	legendWidth := float64(width) * 0.35
	radius := math.Min(float64(width)-legendWidth-2*padding, float64(height)-2*padding) / 2
	if radius <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	cx := padding + radius
	cy := float64(height) / 2

	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Pie chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share of total")))

	if total <= 0 {
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"1\"></circle>", cx, cy, radius, defaultGridColor)
	}

	angle := -math.Pi / 2
	for i, label := range labels {
		color := sliceColor(colors, i)
		if total <= 0 || values[i] <= 0 {
			continue
		}
		share := values[i] / total
		title := fmt.Sprintf("%s %s: %s (%.1f%%)", seriesLabel, label, formatTick(values[i]), share*100)
		if almostEqual(share, 1) {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\"><title>%s</title></circle>", cx, cy, radius, color, template.HTMLEscapeString(title))
			break
		}
		sweep := share * 2 * math.Pi
		x1, y1 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
		x2, y2 := cx+radius*math.Cos(angle+sweep), cy+radius*math.Sin(angle+sweep)
		largeArc := 0
		if sweep > math.Pi {
			largeArc = 1
		}
		fmt.Fprintf(&b, "<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\"><title>%s</title></path>",
			cx, cy, x1, y1, radius, radius, largeArc, x2, y2, color, template.HTMLEscapeString(title))
		angle += sweep
	}

	legendX := cx + radius + padding
	rowHeight := 18.0
	legendY := cy - rowHeight*float64(len(labels))/2
	b.WriteString("<g aria-label=\"Legend\">")
	for i, label := range labels {
		y := legendY + float64(i)*rowHeight
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"12\" height=\"12\" fill=\"%s\"></rect>", legendX, y, sliceColor(colors, i))
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\">%s</text>", legendX+18, y+10, textColor, template.HTMLEscapeString(label))
	}
	b.WriteString("</g>")

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func sliceColor(colors []string, i int) string {
	if i < len(colors) && strings.TrimSpace(colors[i]) != "" {
		return colors[i]
	}
	return defaultBarColor
}
