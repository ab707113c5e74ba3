package render

import (
	"strings"

	"github.com/spektr-org/seizures/report"
	"github.com/spektr-org/seizures/schema"
)

// ============================================================================
// CHART BUILDER: Produces Chart from an evaluated section
// ============================================================================
// Ranked sections give one series over the ranked labels; wide sections give
// one series per column over the row labels.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Series is one named line, bar group or heatmap row.
type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"` // one per category
}

// Chart is everything the HTML and PNG writers need.
type Chart struct {
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	XAxis      string   `json:"x_axis"`
	YAxis      string   `json:"y_axis"`
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// Plottable reports whether the chart has anything to draw.
func (c Chart) Plottable() bool {
	return c.Kind != report.ChartTable && len(c.Categories) > 0 && len(c.Series) > 0
}

// BuildChart lays out one result.
func BuildChart(res report.Result, sch schema.Config) Chart {
	s := res.Section
	chart := Chart{
		Kind:  s.Chart,
		Title: res.Heading(),
		XAxis: LabelForFields(sch, s.Rows),
		YAxis: LabelForValue(sch, s),
	}
	if res.Table != nil {
		chart.Categories = append([]string(nil), res.Table.Rows...)
		chart.Series = buildMultiSeries(res)
	} else {
		chart.Categories, chart.Series = buildSingleSeries(res, chart.YAxis)
	}
	return chart
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(res report.Result, seriesName string) ([]string, []Series) {
	if seriesName == "" {
		seriesName = "Value"
	}
	labels := make([]string, 0, len(res.Ranked))
	values := make([]float64, 0, len(res.Ranked))
	for _, e := range res.Ranked {
		labels = append(labels, strings.Join(e.Key, " "))
		values = append(values, RoundTo2(e.Value))
	}
	return labels, []Series{{Name: seriesName, Color: defaultColors[0], Values: values}}
}

func buildMultiSeries(res report.Result) []Series {
	colors := assignColors(len(res.Table.Columns))
	series := make([]Series, 0, len(res.Table.Columns))
	for i, col := range res.Table.Columns {
		values := res.Table.Column(col)
		for j := range values {
			values[j] = RoundTo2(values[j])
		}
		series = append(series, Series{Name: col, Color: colors[i], Values: values})
	}
	return series
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
