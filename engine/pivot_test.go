package engine

import (
	"testing"

	"github.com/apex/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPivotRoundTrip(t *testing.T) {
	triples := []Triple{
		{Row: "JAN", Column: "Cocaine", Value: 4},
		{Row: "JAN", Column: "Heroin", Value: 2},
		{Row: "FEB", Column: "Heroin", Value: 7},
		{Row: "MAR", Column: "Cocaine", Value: 1},
	}

	table, err := Pivot(triples, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"JAN", "FEB", "MAR"}, table.Rows)
	assert.Equal(t, []string{"Cocaine", "Heroin"}, table.Columns)

	if diff := cmp.Diff(triples, table.Long(), sortTriples); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	v, ok := table.Value("FEB", "Cocaine")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v, "missing combination takes the fill value")
	assert.False(t, table.Has("FEB", "Cocaine"))
	assert.True(t, table.Has("FEB", "Heroin"))
}

var sortTriples = cmp.Transformer("sort", func(in []Triple) map[[2]string]float64 {
	out := make(map[[2]string]float64, len(in))
	for _, tr := range in {
		out[[2]string{tr.Row, tr.Column}] = tr.Value
	}
	return out
})

func TestPivotFillValue(t *testing.T) {
	table, err := Pivot([]Triple{
		{Row: "a", Column: "x", Value: 1},
		{Row: "b", Column: "y", Value: 2},
	}, -1)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, -1}, table.Row("a"))
	assert.Equal(t, []float64{-1, 2}, table.Row("b"))
	assert.Len(t, table.Long(), 2, "fill cells are not part of the long form")
}

func TestPivotDuplicateCombination(t *testing.T) {
	_, err := Pivot([]Triple{
		{Row: "JAN", Column: "Cocaine", Value: 4},
		{Row: "JAN", Column: "Cocaine", Value: 5},
	}, 0)
	assert.ErrorIs(t, err, ErrDuplicateCombination)

	logs := captureLog(t)
	table, err := Pivot([]Triple{
		{Row: "JAN", Column: "Cocaine", Value: 4},
		{Row: "JAN", Column: "Cocaine", Value: 4},
	}, 0)
	require.NoError(t, err, "an identical repeat is not a conflict")
	assert.Equal(t, []float64{4}, table.Row("JAN"))

	require.Len(t, logs.Entries, 1)
	assert.Equal(t, log.DebugLevel, logs.Entries[0].Level)
	assert.Equal(t, "JAN", logs.Entries[0].Fields.Get("row"))
	assert.Equal(t, "Cocaine", logs.Entries[0].Fields.Get("column"))
}

func TestPivotWithOrders(t *testing.T) {
	table, err := Pivot([]Triple{
		{Row: "MAR", Column: "Heroin", Value: 3},
		{Row: "JAN", Column: "Cocaine", Value: 1},
		{Row: "JAN", Column: "Heroin", Value: 2},
	}, 0, WithRowOrder(Months), WithColumnOrder(CanonicalSequence{"Heroin", "Cocaine"}))
	require.NoError(t, err)

	assert.Equal(t, []string(Months), table.Rows)
	assert.Equal(t, []string{"Heroin", "Cocaine"}, table.Columns)
	assert.Equal(t, []float64{2, 1}, table.Row("JAN"))
	assert.Equal(t, []float64{3, 0}, table.Row("MAR"))
	assert.Equal(t, []float64{0, 0}, table.Row("DEC"))
}

func TestPivotResult(t *testing.T) {
	res, err := Aggregate(seizureView(), Query{
		GroupBy: []string{"region", "drug_type"},
		Measure: "count_of_event",
		Filter:  Exclude("drug_type", "Other Drugs**"),
	})
	require.NoError(t, err)

	table, err := PivotResult(res, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Coastal/Interior", "Northern Border", "Southwest Border"}, table.Rows)
	assert.Equal(t, []string{"Cocaine", "Khat (Catha Edulis)", "Marijuana", "Methamphetamine"}, table.Columns)
	assert.Equal(t, []float64{0, 0, 30, 20}, table.Row("Southwest Border"))

	// Column totals match the single-field aggregation.
	byDrug, err := Aggregate(seizureView(), Query{
		GroupBy: []string{"drug_type"},
		Measure: "count_of_event",
		Filter:  Exclude("drug_type", "Other Drugs**"),
	})
	require.NoError(t, err)
	for j, col := range table.Columns {
		assert.Equal(t, byDrug.Value(col), table.Totals(ColumnAxis)[j], col)
	}
}

func TestPivotResultJoinsLeadingFields(t *testing.T) {
	res, err := Aggregate(seizureView(), Query{
		GroupBy: []string{"region", "month", "drug_type"},
		Measure: "count_of_event",
	})
	require.NoError(t, err)

	table, err := PivotResult(res, 0, WithColumnOrder(CanonicalSequence{"Marijuana"}))
	require.NoError(t, err)

	v, ok := table.Value("Southwest Border JAN", "Marijuana")
	require.True(t, ok)
	assert.Equal(t, 30.0, v)
	assert.Equal(t, []string{"Marijuana"}, table.Columns)
	assert.NotEmpty(t, table.Dropped)
}

func TestPivotResultRejectsAmbiguousRowLabels(t *testing.T) {
	view := recordView([]Record{
		rec("A B", "X", "C", 1, 1),
		rec("A", "X", "B C", 2, 2),
	})
	res, err := Aggregate(view, Query{GroupBy: []string{"region", "month", "drug_type"}, Measure: "weight_lbs"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	_, err = PivotResult(res, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrDuplicateCombination)
	assert.ErrorContains(t, err, `row label "A B C"`)

	// Equal values must not merge silently either.
	same := recordView([]Record{
		rec("A B", "X", "C", 1, 1),
		rec("A", "X", "B C", 1, 1),
	})
	res, err = Aggregate(same, Query{GroupBy: []string{"region", "month", "drug_type"}, Measure: "weight_lbs"})
	require.NoError(t, err)
	_, err = PivotResult(res, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPivotResultNeedsTwoFields(t *testing.T) {
	res, err := Aggregate(seizureView(), Query{GroupBy: []string{"region"}, Measure: "weight_lbs"})
	require.NoError(t, err)
	_, err = PivotResult(res, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWideTablePeakAndTotals(t *testing.T) {
	table, err := Pivot([]Triple{
		{Row: "JAN", Column: "Cocaine", Value: 4},
		{Row: "FEB", Column: "Cocaine", Value: 9},
		{Row: "MAR", Column: "Cocaine", Value: 9},
		{Row: "JAN", Column: "Heroin", Value: 1},
	}, 0)
	require.NoError(t, err)

	row, v, ok := table.Peak("Cocaine")
	require.True(t, ok)
	assert.Equal(t, "FEB", row, "earliest row wins a tie")
	assert.Equal(t, 9.0, v)

	_, _, ok = table.Peak("Fentanyl")
	assert.False(t, ok)

	assert.Equal(t, []float64{5, 9, 9}, table.Totals(RowAxis))
	assert.Equal(t, []float64{22, 1}, table.Totals(ColumnAxis))
	assert.Equal(t, []float64{4, 9, 9}, table.Column("Cocaine"))
	assert.Nil(t, table.Column("Fentanyl"))
	assert.Nil(t, table.Row("DEC"))
}
