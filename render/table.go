package render

import (
	"strings"

	"github.com/spektr-org/seizures/engine"
	"github.com/spektr-org/seizures/report"
	"github.com/spektr-org/seizures/schema"
)

// ============================================================================
// TABLE BUILDER: Produces Table from an evaluated section
// ============================================================================
// Ranked sections become a two-column table (label, value) in rank order.
// Wide sections keep their row and column order and gain a Total column.
// Both carry a Total summary row.
// ============================================================================

// Column describes one output column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text" or "number"
	Align string `json:"align"` // "left" or "right"
}

// Summary is the trailing totals row. Values align with the number columns.
type Summary struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Table is a section as rows: one text label column followed by number
// columns. Values[i] holds the numbers of row Labels[i].
type Table struct {
	Title   string      `json:"title"`
	Columns []Column    `json:"columns"`
	Labels  []string    `json:"labels"`
	Values  [][]float64 `json:"values"`
	Summary *Summary    `json:"summary,omitempty"`
}

// Header returns the column labels.
func (t Table) Header() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// BuildTable lays out one result.
func BuildTable(res report.Result, sch schema.Config) Table {
	if res.Table != nil {
		return buildWideTable(res, sch)
	}
	return buildRankedTable(res, sch)
}

// ============================================================================
// RANKED TABLE: One row per group
// ============================================================================

func buildRankedTable(res report.Result, sch schema.Config) Table {
	s := res.Section
	columns := []Column{
		{Key: strings.Join(s.Rows, "+"), Label: LabelForFields(sch, s.Rows), Type: "text", Align: "left"},
		{Key: "value", Label: LabelForValue(sch, s), Type: "number", Align: "right"},
	}

	labels := make([]string, 0, len(res.Ranked))
	values := make([][]float64, 0, len(res.Ranked))
	var total float64
	for _, e := range res.Ranked {
		labels = append(labels, strings.Join(e.Key, " "))
		values = append(values, []float64{e.Value})
		total += e.Value
	}

	return Table{
		Title:   res.Heading(),
		Columns: columns,
		Labels:  labels,
		Values:  values,
		Summary: &Summary{Label: "Total", Values: []float64{total}},
	}
}

// ============================================================================
// WIDE TABLE: One row per row label, one column per column label + Total
// ============================================================================

func buildWideTable(res report.Result, sch schema.Config) Table {
	s, wide := res.Section, res.Table

	columns := make([]Column, 0, len(wide.Columns)+2)
	columns = append(columns, Column{
		Key:   strings.Join(s.Rows, "+"),
		Label: LabelForFields(sch, s.Rows),
		Type:  "text",
		Align: "left",
	})
	for _, c := range wide.Columns {
		columns = append(columns, Column{Key: c, Label: c, Type: "number", Align: "right"})
	}
	columns = append(columns, Column{Key: "total", Label: "Total", Type: "number", Align: "right"})

	rowTotals := wide.Totals(engine.RowAxis)
	values := make([][]float64, len(wide.Rows))
	var grand float64
	for i, label := range wide.Rows {
		values[i] = append(wide.Row(label), rowTotals[i])
		grand += rowTotals[i]
	}

	return Table{
		Title:   res.Heading(),
		Columns: columns,
		Labels:  append([]string(nil), wide.Rows...),
		Values:  values,
		Summary: &Summary{Label: "Total", Values: append(wide.Totals(engine.ColumnAxis), grand)},
	}
}

// rows returns header, body and summary as text cells, formatting numbers
// with format.
func (t Table) rows(format func(float64) string) [][]string {
	out := make([][]string, 0, len(t.Labels)+2)
	out = append(out, t.Header())
	for i, label := range t.Labels {
		row := make([]string, 0, len(t.Columns))
		row = append(row, label)
		for _, v := range t.Values[i] {
			row = append(row, format(v))
		}
		out = append(out, row)
	}
	if t.Summary != nil {
		row := []string{t.Summary.Label}
		for _, v := range t.Summary.Values {
			row = append(row, format(v))
		}
		out = append(out, row)
	}
	return out
}
