package report

import (
	"context"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/seizures/dataset"
	"github.com/spektr-org/seizures/engine"
)

// ============================================================================
// FIXTURES
// ============================================================================

func seizure(fy int, month, region, drug, aor, land, component string, events int, lbs float64) dataset.Record {
	return dataset.Record{
		Region: region, DrugType: drug, Month: month, FY: fy,
		AreaOfResponsibility: aor, LandFilter: land, Component: component,
		CountOfEvent: events, WeightLbs: lbs,
	}
}

func fixture() *dataset.Dataset {
	const ofo, usbp = "Office of Field Operations", "U.S. Border Patrol"
	return dataset.New([]dataset.Record{
		seizure(2021, "JAN", "Southwest Border", "Methamphetamine", "SAN DIEGO FIELD OFFICE", "LAND", ofo, 40, 9000),
		seizure(2021, "FEB", "Southwest Border", "Marijuana", "EL PASO SECTOR", "LAND", usbp, 25, 12000),
		seizure(2021, "FEB", "Northern Border", "Cocaine", "DETROIT FIELD OFFICE", "OTHER", ofo, 10, 300),
		seizure(2021, "MAR", "Coastal/Interior", "Other Drugs**", "MIAMI FIELD OFFICE", "OTHER", ofo, 90, 50),
		seizure(2021, "MAR", "Coastal/Interior", "Heroin", "MIAMI FIELD OFFICE", "OTHER", ofo, 12, 80),
		seizure(2021, "JUL", "Coastal/Interior", "Khat", "NEW YORK FIELD OFFICE", "OTHER", ofo, 3, 700),
		seizure(2022, "JAN", "Southwest Border", "Methamphetamine", "SAN DIEGO FIELD OFFICE", "LAND", ofo, 15, 7000),
		seizure(2022, "JUN", "Southwest Border", "Fentanyl", "TUCSON SECTOR", "LAND", usbp, 60, 400),
		seizure(2022, "JUN", "Northern Border", "Marijuana", "DETROIT FIELD OFFICE", "LAND", ofo, 5, 600),
		seizure(2022, "AUG", "Coastal/Interior", "Cocaine", "MIAMI FIELD OFFICE", "OTHER", ofo, 20, 1500),
		seizure(2022, "AUG", "Coastal/Interior", "Other Drugs**", "MIAMI FIELD OFFICE", "OTHER", ofo, 70, 20),
	})
}

func runDefault(t *testing.T, opts ...Option) map[string]Result {
	t.Helper()
	results, err := NewRunner(fixture(), opts...).Run(context.Background(), Default())
	require.NoError(t, err)

	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name()] = r
	}
	return byName
}

// ============================================================================
// DEFINITIONS
// ============================================================================

func TestDefaultDefinition(t *testing.T) {
	def := Default()
	assert.Equal(t, []string{
		"weight_by_drug",
		"top5_drugs_by_region",
		"monthly_weight_top3",
		"fy_monthly_events_top3",
		"event_share_over_time",
		"top10_areas_by_drug",
		"region_by_land_filter",
		"region_by_component",
		"monthly_events",
	}, def.IDs())
	for _, s := range def.Sections {
		assert.NotEmpty(t, s.Title, s.ID)
		assert.NotEmpty(t, s.Chart, s.ID)
	}
}

func TestParseDefinitionErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          ``,
		"no sections":    `title: x`,
		"unknown key":    "sections:\n  - id: a\n    rows: [region]\n    measure: weight_lbs\n    colour: red\n",
		"missing id":     "sections:\n  - rows: [region]\n    measure: weight_lbs\n",
		"duplicate id":   "sections:\n  - {id: a, rows: [region], measure: weight_lbs}\n  - {id: a, rows: [region], measure: weight_lbs}\n",
		"no rows":        "sections:\n  - {id: a, measure: weight_lbs}\n",
		"bad chart":      "sections:\n  - {id: a, rows: [region], measure: weight_lbs, chart: pie}\n",
		"bad reducer":    "sections:\n  - {id: a, rows: [region], measure: weight_lbs, reducer: mean}\n",
		"sum no measure": "sections:\n  - {id: a, rows: [region]}\n",
		"bad order":      "sections:\n  - {id: a, rows: [region], measure: weight_lbs, row_order: weekly}\n",
		"order two rows": "sections:\n  - {id: a, rows: [region, month], measure: weight_lbs, row_order: months}\n",
		"peaks no col":   "sections:\n  - {id: a, rows: [month], measure: weight_lbs, peaks: true}\n",
		"top rows multi": "sections:\n  - {id: a, rows: [fy, month], column: drug_type, measure: weight_lbs, top_rows: 3}\n",
		"top and order":  "sections:\n  - {id: a, rows: [month], column: drug_type, measure: weight_lbs, top_rows: 3, row_order: months}\n",
		"negative top":   "sections:\n  - {id: a, rows: [region], measure: weight_lbs, top_rows: -1}\n",
		"bad row field":  "sections:\n  - {id: a, rows: [district], measure: weight_lbs}\n",
		"bad measure":    "sections:\n  - {id: a, rows: [region], measure: value_usd}\n",
		"bad filter":     "sections:\n  - {id: a, rows: [region], measure: weight_lbs, exclude: {agency: [CBP]}}\n",
		"bad split":      "sections:\n  - {id: a, rows: [month], column: drug_type, measure: weight_lbs, split_by: year}\n",
		"ranked order":   "sections:\n  - {id: a, rows: [month], measure: weight_lbs, top_rows: 5, row_order: months}\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefinition(strings.NewReader(src))
			assert.ErrorIs(t, err, engine.ErrConfiguration)
		})
	}
}

func TestParseDefinitionUnknownFields(t *testing.T) {
	for _, src := range []string{
		"sections:\n  - {id: a, rows: [district], measure: weight_lbs}\n",
		"sections:\n  - {id: a, rows: [month], column: agency, reducer: count}\n",
		"sections:\n  - {id: a, rows: [region], measure: region}\n",
		"sections:\n  - {id: a, rows: [region], measure: weight_lbs, include: {month: [JAN]}, exclude: {district: [X]}}\n",
	} {
		_, err := ParseDefinition(strings.NewReader(src))
		assert.ErrorIs(t, err, engine.ErrConfiguration, src)
		assert.ErrorIs(t, err, engine.ErrInvalidField, src)
	}
}

func TestParseDefinitionDefaultsChart(t *testing.T) {
	def, err := ParseDefinition(strings.NewReader("sections:\n  - {id: a, rows: [region], reducer: count}\n"))
	require.NoError(t, err)
	assert.Equal(t, ChartBar, def.Sections[0].Chart)
}

func TestSelect(t *testing.T) {
	def := Default()

	sub, err := def.Select("monthly_events", "weight_by_drug")
	require.NoError(t, err)
	assert.Equal(t, []string{"weight_by_drug", "monthly_events"}, sub.IDs())

	all, err := def.Select()
	require.NoError(t, err)
	assert.Len(t, all.Sections, len(def.Sections))

	_, err = def.Select("nope")
	assert.ErrorIs(t, err, engine.ErrConfiguration)
}

func TestSectionFilter(t *testing.T) {
	assert.Nil(t, Section{}.Filter())

	s := Section{
		Include: map[string][]string{"region": {"Southwest Border"}},
		Exclude: map[string][]string{"drug_type": {"Marijuana"}, "month": nil},
	}
	view := fixture().View()
	filtered := engine.ApplyFilter(view, s.Filter())
	assert.Equal(t, 3, filtered.Len())
}

// ============================================================================
// RUNNER
// ============================================================================

func TestRunRankedSection(t *testing.T) {
	got := runDefault(t)["weight_by_drug"]
	require.Nil(t, got.Table)
	assert.Equal(t, []string{"Methamphetamine", "Marijuana", "Cocaine", "Khat", "Fentanyl", "Heroin", "Other Drugs**"},
		engine.KeyLabels(got.Ranked, 0))
	assert.Equal(t, 16000.0, got.Ranked[0].Value)
}

func TestRunTopColumns(t *testing.T) {
	got := runDefault(t)["top5_drugs_by_region"]
	require.NotNil(t, got.Table)

	assert.Equal(t, []string{"Methamphetamine", "Marijuana", "Cocaine", "Khat", "Fentanyl"}, got.Table.Columns)
	assert.Equal(t, []string{"Coastal/Interior", "Northern Border", "Southwest Border"}, got.Table.Rows)
	assert.Equal(t, []float64{16000, 12000, 0, 0, 400}, got.Table.Row("Southwest Border"))
}

func TestRunMonthlyOrder(t *testing.T) {
	results := runDefault(t)

	monthly := results["monthly_weight_top3"].Table
	require.NotNil(t, monthly)
	assert.Equal(t, []string(engine.Months), monthly.Rows)
	assert.Equal(t, []string{"Methamphetamine", "Marijuana", "Cocaine"}, monthly.Columns)
	assert.Equal(t, []float64{0, 0, 0}, monthly.Row("DEC"))

	events := results["monthly_events"]
	require.Len(t, events.Ranked, 12)
	assert.Equal(t, "JAN", events.Ranked[0].Key[0])
	assert.Equal(t, 55.0, events.Ranked[0].Value)
	assert.Equal(t, 0.0, events.Ranked[3].Value, "APR has no rows")
}

func TestRunSplitWithPeaks(t *testing.T) {
	results := runDefault(t)

	fy21, ok := results["fy_monthly_events_top3_2021"]
	require.True(t, ok)
	assert.Equal(t, "2021", fy21.Split)
	assert.Equal(t, []string{"Methamphetamine", "Marijuana", "Heroin"}, fy21.Table.Columns)
	assert.NotContains(t, fy21.Table.Columns, "Other Drugs**")
	assert.Contains(t, fy21.Heading(), "fy 2021")

	assert.Equal(t, []Peak{
		{Column: "Methamphetamine", Row: "JAN", Value: 40},
		{Column: "Marijuana", Row: "FEB", Value: 25},
		{Column: "Heroin", Row: "MAR", Value: 12},
	}, fy21.Peaks)

	fy22 := results["fy_monthly_events_top3_2022"]
	assert.Equal(t, []string{"Fentanyl", "Cocaine", "Methamphetamine"}, fy22.Table.Columns)
	assert.Equal(t, Peak{Column: "Fentanyl", Row: "JUN", Value: 60}, fy22.Peaks[0])
}

func TestRunSplitSkipsRowsWithoutFY(t *testing.T) {
	logger := log.Log.(*log.Logger)
	prev := logger.Handler
	logs := memory.New()
	log.SetHandler(logs)
	t.Cleanup(func() { log.SetHandler(prev) })

	records := fixture().Records()
	records = append(records, seizure(0, "MAY", "Southwest Border", "Khat", "SAN DIEGO FIELD OFFICE", "LAND", "Office of Field Operations", 500, 10))

	def, err := Default().Select("fy_monthly_events_top3")
	require.NoError(t, err)
	results, err := NewRunner(dataset.New(records)).Run(context.Background(), def)
	require.NoError(t, err)

	var splits []string
	for _, r := range results {
		splits = append(splits, r.Split)
	}
	assert.Equal(t, []string{"2021", "2022"}, splits)
	assert.Equal(t, []string{"Methamphetamine", "Marijuana", "Heroin"}, results[0].Table.Columns,
		"rows without a fiscal year do not affect any year's ranking")

	var warned bool
	for _, e := range logs.Entries {
		if e.Level == log.WarnLevel && e.Message == "rows without a split value left out" {
			warned = true
			assert.Equal(t, 1, e.Fields.Get("rows"))
			assert.Equal(t, "fy", e.Fields.Get("split_by"))
		}
	}
	assert.True(t, warned)
}

func TestRunFiscalMonths(t *testing.T) {
	share := runDefault(t)["event_share_over_time"].Table
	require.NotNil(t, share)
	require.Len(t, share.Rows, 24)
	assert.Equal(t, "2021 JAN", share.Rows[0])
	assert.Equal(t, "2022 DEC", share.Rows[23])

	v, ok := share.Value("2022 AUG", "Other Drugs**")
	require.True(t, ok)
	assert.Equal(t, 70.0, v)
	assert.Empty(t, share.Dropped)
}

func TestRunTopRows(t *testing.T) {
	areas := runDefault(t)["top10_areas_by_drug"].Table
	require.NotNil(t, areas)
	assert.Equal(t, []string{"MIAMI", "TUCSON SECTOR", "SAN DIEGO", "EL PASO SECTOR", "DETROIT", "NEW YORK"}, areas.Rows)

	totals := areas.Totals(engine.RowAxis)
	assert.Equal(t, 192.0, totals[0])
}

func TestRunParallelMatchesSequential(t *testing.T) {
	seq := runDefault(t, WithRunID("fixed"))
	par := runDefault(t, WithRunID("fixed"), WithParallel(true))

	if diff := cmp.Diff(seq, par, cmpopts.IgnoreUnexported(engine.WideTable{})); diff != "" {
		t.Errorf("parallel run differs (-seq +par):\n%s", diff)
	}
	for name, r := range seq {
		if r.Table != nil {
			assert.Equal(t, r.Table.Long(), par[name].Table.Long(), name)
		}
	}
}

func TestRunErrors(t *testing.T) {
	runner := NewRunner(fixture())

	def := &Definition{Sections: []Section{{ID: "a", Rows: []string{"district"}, Measure: "weight_lbs"}}}
	_, err := runner.Run(context.Background(), def)
	assert.ErrorIs(t, err, engine.ErrInvalidField)
	assert.ErrorContains(t, err, `section "a"`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Run(ctx, Default())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunIDs(t *testing.T) {
	a, b := NewRunner(fixture()), NewRunner(fixture())
	assert.NotEqual(t, a.RunID(), b.RunID())
	assert.Len(t, a.RunID(), 36)

	results, err := a.Run(context.Background(), Default())
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, a.RunID(), r.RunID)
	}
}
