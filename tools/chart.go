package tools

import (
	"fmt"
	"html"
	"math"
	"strings"
)

// ChartSpec is the declarative chart description a sandboxed script submits
// via its plot(...) call.
type ChartSpec struct {
	ID     string
	Title  string
	Type   string // "line" or "bar"
	XLabel string
	YLabel string
	Labels []string
	Series []ChartSeries
}

// ChartSeries is one named data series.
type ChartSeries struct {
	Name   string
	Values []float64
	Color  string
}

var seriesPalette = []string{"#2563eb", "#dc2626", "#16a34a", "#9333ea", "#ea580c", "#0d9488"}

const (
	chartWidth   = 760
	chartHeight  = 380
	chartPadLeft = 60
	chartPadTop  = 40
	chartPadBot  = 50
)

// Validate checks that a spec can be rendered and returns a corrective
// message suitable for feeding back to the submitting model.
func (s *ChartSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("chart spec is missing 'id'")
	}
	if s.Type != "line" && s.Type != "bar" {
		return fmt.Errorf("chart type %q is not supported: use \"line\" or \"bar\"", s.Type)
	}
	if len(s.Series) == 0 {
		return fmt.Errorf("chart spec needs at least one series with numeric 'values'")
	}
	for _, series := range s.Series {
		if len(series.Values) == 0 {
			return fmt.Errorf("series %q has no values", series.Name)
		}
		if len(s.Labels) > 0 && len(series.Values) != len(s.Labels) {
			return fmt.Errorf("series %q has %d values but there are %d labels",
				series.Name, len(series.Values), len(s.Labels))
		}
	}
	return nil
}

// Render produces a self-contained inline SVG for the chart. The output
// embeds directly into the report HTML with no external assets.
func (s *ChartSpec) Render() string {
	minY, maxY := s.valueRange()
	plotW := float64(chartWidth - chartPadLeft - 20)
	plotH := float64(chartHeight - chartPadTop - chartPadBot)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" style="width:100%%;height:auto;background:#ffffff">`,
		chartWidth, chartHeight)
	fmt.Fprintf(&b, `<text x="%d" y="24" font-size="16" font-weight="bold" fill="#111827">%s</text>`,
		chartPadLeft, html.EscapeString(s.Title))

	// Horizontal gridlines with y-axis labels.
	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		y := chartPadTop + plotH*(1-frac)
		value := minY + (maxY-minY)*frac
		fmt.Fprintf(&b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#e5e7eb"/>`,
			chartPadLeft, y, chartWidth-20, y)
		fmt.Fprintf(&b, `<text x="%d" y="%.1f" font-size="11" text-anchor="end" fill="#6b7280">%s</text>`,
			chartPadLeft-6, y+4, formatTick(value))
	}

	pointCount := s.maxSeriesLen()
	for seriesIdx, series := range s.Series {
		color := series.Color
		if color == "" {
			color = seriesPalette[seriesIdx%len(seriesPalette)]
		}
		switch s.Type {
		case "bar":
			s.renderBars(&b, series, seriesIdx, color, minY, maxY, plotW, plotH)
		default:
			s.renderLine(&b, series, color, minY, maxY, plotW, plotH, pointCount)
		}
	}

	// X labels, thinned when dense.
	step := 1
	if len(s.Labels) > 12 {
		step = len(s.Labels) / 12
	}
	for i := 0; i < len(s.Labels); i += step {
		x := chartPadLeft + s.xPosition(i, pointCount, plotW)
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" font-size="10" text-anchor="middle" fill="#6b7280">%s</text>`,
			x, chartHeight-chartPadBot+16, html.EscapeString(s.Labels[i]))
	}

	// Legend.
	legendX := chartPadLeft
	for i, series := range s.Series {
		color := series.Color
		if color == "" {
			color = seriesPalette[i%len(seriesPalette)]
		}
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="10" height="10" fill="%s"/>`,
			legendX, chartHeight-18, color)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" fill="#374151">%s</text>`,
			legendX+14, chartHeight-9, html.EscapeString(series.Name))
		legendX += 14 + 8*len(series.Name) + 20
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func (s *ChartSpec) renderLine(b *strings.Builder, series ChartSeries, color string, minY, maxY, plotW, plotH float64, pointCount int) {
	var points []string
	for i, value := range series.Values {
		x := chartPadLeft + s.xPosition(i, pointCount, plotW)
		y := chartPadTop + plotH*(1-normalize(value, minY, maxY))
		points = append(points, fmt.Sprintf("%.1f,%.1f", x, y))
	}
	fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`,
		strings.Join(points, " "), color)
}

func (s *ChartSpec) renderBars(b *strings.Builder, series ChartSeries, seriesIdx int, color string, minY, maxY, plotW, plotH float64) {
	groups := len(series.Values)
	groupW := plotW / float64(groups)
	barW := groupW / float64(len(s.Series)+1)
	for i, value := range series.Values {
		barH := plotH * normalize(value, minY, maxY)
		x := float64(chartPadLeft) + groupW*float64(i) + barW*float64(seriesIdx) + barW/2
		y := chartPadTop + plotH - barH
		fmt.Fprintf(b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
			x, y, barW, barH, color)
	}
}

func (s *ChartSpec) xPosition(index, pointCount int, plotW float64) float64 {
	if pointCount <= 1 {
		return plotW / 2
	}
	return plotW * float64(index) / float64(pointCount-1)
}

func (s *ChartSpec) maxSeriesLen() int {
	count := len(s.Labels)
	for _, series := range s.Series {
		if len(series.Values) > count {
			count = len(series.Values)
		}
	}
	return count
}

func (s *ChartSpec) valueRange() (float64, float64) {
	minY := math.Inf(1)
	maxY := math.Inf(-1)
	for _, series := range s.Series {
		for _, value := range series.Values {
			minY = math.Min(minY, value)
			maxY = math.Max(maxY, value)
		}
	}
	// Bars read best from zero; pad a flat range so it still renders.
	if s.Type == "bar" && minY > 0 {
		minY = 0
	}
	if minY == maxY {
		maxY = minY + 1
	}
	return minY, maxY
}

func normalize(value, minY, maxY float64) float64 {
	return (value - minY) / (maxY - minY)
}

func formatTick(value float64) string {
	if math.Abs(value) >= 100 {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.1f", value)
}
