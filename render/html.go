package render

import (
	"fmt"
	"io"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/spektr-org/seizures/report"
)

// Charts with more categories than this get rotated axis labels.
const rotateAfter = 12

// WriteHTML writes one page holding an interactive chart per section.
// Table-only sections and empty results are skipped.
func WriteHTML(w io.Writer, doc *Document) error {
	page := components.NewPage()
	page.SetPageTitle(doc.Title)

	for _, s := range doc.Sections {
		if !s.Chart.Plottable() {
			continue
		}
		page.AddCharts(echart(s.Name, s.Chart))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("html: %w", err)
	}
	return nil
}

func echart(id string, c Chart) components.Charter {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{ChartID: id, Width: "1100px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(c.Series) > 1), Top: "30px"}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XAxis, AxisLabel: axisLabel(len(c.Categories))}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YAxis}),
		charts.WithColorsOpts(opts.Colors(seriesColors(c.Series))),
	}

	switch c.Kind {
	case report.ChartHeatmap:
		return heatmap(c, global)
	case report.ChartLine, report.ChartArea:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(c.Categories)
		for _, s := range c.Series {
			var series []charts.SeriesOpts
			if c.Kind == report.ChartArea {
				series = append(series,
					charts.WithLineChartOpts(opts.LineChart{Stack: "total"}),
					charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.6)}),
				)
			}
			line.AddSeries(s.Name, lineData(s.Values), series...)
		}
		return line
	default:
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(c.Categories)
		for _, s := range c.Series {
			var series []charts.SeriesOpts
			if c.Kind == report.ChartStackedBar {
				series = append(series, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
			}
			bar.AddSeries(s.Name, barData(s.Values), series...)
		}
		return bar
	}
}

// heatmap puts categories on the x axis and one row per series on the y axis.
func heatmap(c Chart, global []charts.GlobalOpts) components.Charter {
	names := make([]string, len(c.Series))
	var data []opts.HeatMapData
	var low, high float64
	for y, s := range c.Series {
		names[y] = s.Name
		for x, v := range s.Values {
			data = append(data, opts.HeatMapData{Value: [3]any{x, y, v}})
		}
		if len(s.Values) > 0 {
			low = min(low, slices.Min(s.Values))
			high = max(high, slices.Max(s.Values))
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(append(global,
		charts.WithXAxisOpts(opts.XAxis{Name: c.XAxis, Type: "category", Data: c.Categories, AxisLabel: axisLabel(len(c.Categories))}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: names}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(low),
			Max:        float32(high),
			InRange:    &opts.VisualMapInRange{Color: []string{"#EEF2FF", defaultColors[0]}},
		}),
	)...)
	hm.SetXAxis(c.Categories)
	hm.AddSeries(c.YAxis, data)
	return hm
}

func axisLabel(categories int) *opts.AxisLabel {
	if categories <= rotateAfter {
		return nil
	}
	return &opts.AxisLabel{Rotate: 45, Interval: "0"}
}

func seriesColors(series []Series) []string {
	colors := make([]string, len(series))
	for i, s := range series {
		colors[i] = s.Color
	}
	return colors
}

func barData(values []float64) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}
