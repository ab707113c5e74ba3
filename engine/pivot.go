package engine

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/apex/log"
)

// ============================================================================
// RESHAPER: Long (row, column, value) triples → WideTable
// ============================================================================
// Pivot never sums: a repeated (row, column) pair with a different value is
// an upstream aggregation bug and fails with ErrDuplicateCombination. An
// exact repeat is kept once and logged at debug level.
// ============================================================================

// Triple is one long-form cell.
type Triple struct {
	Row    string  `json:"row"`
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

// WideTable holds a measure indexed by two categorical axes.
// Cells absent from the source hold Fill.
type WideTable struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Fill    float64  `json:"fill"`

	// Dropped lists labels removed by reindexing, across both axes.
	Dropped []string `json:"dropped,omitempty"`

	cells   [][]float64 // [row][column]
	present [][]bool    // true where the source supplied the cell
}

func newWideTable(rows, columns []string, fill float64) *WideTable {
	t := &WideTable{
		Rows:    rows,
		Columns: columns,
		Fill:    fill,
		cells:   make([][]float64, len(rows)),
		present: make([][]bool, len(rows)),
	}
	for i := range rows {
		t.cells[i] = make([]float64, len(columns))
		t.present[i] = make([]bool, len(columns))
		for j := range columns {
			t.cells[i][j] = fill
		}
	}
	return t
}

// Pivot builds a WideTable from long-form triples. Labels keep first-seen
// order unless WithRowOrder or WithColumnOrder is given.
func Pivot(triples []Triple, fill float64, opts ...PivotOption) (*WideTable, error) {
	const op = "pivot"
	cfg := applyPivotOptions(opts)

	type pair struct{ row, col string }
	values := make(map[pair]float64, len(triples))
	var rows, cols []string
	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)

	for _, tr := range triples {
		p := pair{tr.Row, tr.Column}
		if prev, ok := values[p]; ok {
			if prev != tr.Value {
				return nil, newError(ErrDuplicateCombination, op, tr.Row+" × "+tr.Column,
					fmt.Sprintf("values %g and %g; aggregate before pivoting", prev, tr.Value))
			}
			log.WithFields(log.Fields{
				"row":    tr.Row,
				"column": tr.Column,
				"value":  tr.Value,
			}).Debug("pivot: repeated cell ignored")
			continue
		}
		values[p] = tr.Value
		if !rowSeen[tr.Row] {
			rowSeen[tr.Row] = true
			rows = append(rows, tr.Row)
		}
		if !colSeen[tr.Column] {
			colSeen[tr.Column] = true
			cols = append(cols, tr.Column)
		}
	}

	t := newWideTable(rows, cols, fill)
	rowIdx := indexOf(rows)
	colIdx := indexOf(cols)
	for p, v := range values {
		i, j := rowIdx[p.row], colIdx[p.col]
		t.cells[i][j] = v
		t.present[i][j] = true
	}

	var err error
	if cfg.rowOrder != nil {
		if t, err = ReindexTable(t, RowAxis, cfg.rowOrder); err != nil {
			return nil, err
		}
	}
	if cfg.columnOrder != nil {
		if t, err = ReindexTable(t, ColumnAxis, cfg.columnOrder); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// PivotResult pivots an aggregation whose keys have two or more fields.
// The last key field becomes the column; the leading fields, joined with a
// space, become the row label ("2021 JAN"). Two different leading tuples that
// join to the same label fail with ErrInvalidArgument. Without
// WithColumnOrder the columns are sorted ascending.
func PivotResult(r *AggregationResult, fill float64, opts ...PivotOption) (*WideTable, error) {
	const op = "pivot"
	if len(r.Fields) < 2 {
		return nil, newError(ErrInvalidArgument, op, strings.Join(r.Fields, ","),
			"needs at least two group-by fields")
	}

	triples := make([]Triple, 0, r.Len())
	owners := make(map[string]GroupKey)
	for _, e := range r.entries {
		last := len(e.Key) - 1
		lead := e.Key[:last]
		row := strings.Join(lead, " ")
		if owner, ok := owners[row]; ok && !owner.Equal(lead) {
			return nil, newError(ErrInvalidArgument, op, strings.Join(r.Fields[:last], ","),
				fmt.Sprintf("keys %q and %q both make row label %q", []string(owner), []string(lead), row))
		}
		owners[row] = lead
		triples = append(triples, Triple{
			Row:    row,
			Column: e.Key[last],
			Value:  e.Value,
		})
	}

	if applyPivotOptions(opts).columnOrder == nil {
		cols := UniqueColumns(triples)
		sort.Strings(cols)
		if len(cols) > 0 {
			opts = append(slices.Clone(opts), WithColumnOrder(cols))
		}
	}
	return Pivot(triples, fill, opts...)
}

// UniqueColumns returns the column labels of triples in first-seen order.
func UniqueColumns(triples []Triple) CanonicalSequence {
	seen := make(map[string]bool)
	var out CanonicalSequence
	for _, tr := range triples {
		if !seen[tr.Column] {
			seen[tr.Column] = true
			out = append(out, tr.Column)
		}
	}
	return out
}

// ============================================================================
// ACCESSORS
// ============================================================================

// At returns the cell at row i, column j.
func (t *WideTable) At(i, j int) float64 { return t.cells[i][j] }

// Value returns the cell for the given labels. ok is false when either label
// is not on its axis.
func (t *WideTable) Value(row, col string) (v float64, ok bool) {
	i, j := slices.Index(t.Rows, row), slices.Index(t.Columns, col)
	if i < 0 || j < 0 {
		return t.Fill, false
	}
	return t.cells[i][j], true
}

// Has reports whether the cell came from the source rather than the fill.
func (t *WideTable) Has(row, col string) bool {
	i, j := slices.Index(t.Rows, row), slices.Index(t.Columns, col)
	return i >= 0 && j >= 0 && t.present[i][j]
}

// Row returns a copy of the row's cells, nil when absent.
func (t *WideTable) Row(label string) []float64 {
	i := slices.Index(t.Rows, label)
	if i < 0 {
		return nil
	}
	return slices.Clone(t.cells[i])
}

// Column returns a copy of the column's cells, nil when absent.
func (t *WideTable) Column(label string) []float64 {
	j := slices.Index(t.Columns, label)
	if j < 0 {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.cells[i][j]
	}
	return out
}

// Long flattens the table back to triples, row-major, keeping only cells the
// source supplied.
func (t *WideTable) Long() []Triple {
	var out []Triple
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			if t.present[i][j] {
				out = append(out, Triple{Row: row, Column: col, Value: t.cells[i][j]})
			}
		}
	}
	return out
}

// Totals sums each row (RowAxis) or each column (ColumnAxis).
func (t *WideTable) Totals(axis Axis) []float64 {
	if axis == RowAxis {
		out := make([]float64, len(t.Rows))
		for i := range t.Rows {
			for j := range t.Columns {
				out[i] += t.cells[i][j]
			}
		}
		return out
	}
	out := make([]float64, len(t.Columns))
	for i := range t.Rows {
		for j := range t.Columns {
			out[j] += t.cells[i][j]
		}
	}
	return out
}

// Peak returns the row holding the column's maximum. The earliest row wins
// ties. ok is false for an unknown column or an empty table.
func (t *WideTable) Peak(col string) (row string, value float64, ok bool) {
	j := slices.Index(t.Columns, col)
	if j < 0 || len(t.Rows) == 0 {
		return "", 0, false
	}
	best := 0
	for i := 1; i < len(t.Rows); i++ {
		if t.cells[i][j] > t.cells[best][j] {
			best = i
		}
	}
	return t.Rows[best], t.cells[best][j], true
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
