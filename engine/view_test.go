package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seizure struct {
	Region string
	Drug   string
	Lbs    float64
}

func seizureAdapter() *Adapter[seizure] {
	return NewAdapter[seizure]().
		Dimension("region", func(s seizure) string { return s.Region }).
		Dimension("drug_type", func(s seizure) string { return s.Drug }).
		Measure("weight_lbs", func(s seizure) float64 { return s.Lbs })
}

func TestAdapterBind(t *testing.T) {
	rows := []seizure{
		{"Southwest Border", "Methamphetamine", 900},
		{"Northern Border", "Cocaine", 12.5},
	}
	view := seizureAdapter().Bind(rows)

	assert.Equal(t, 2, view.Len())
	assert.Equal(t, []string{"region", "drug_type"}, view.DimensionKeys())
	assert.Equal(t, []string{"weight_lbs"}, view.MeasureKeys())
	assert.Equal(t, "Cocaine", view.Dimension(1, "drug_type"))
	assert.Equal(t, 900.0, view.Measure(0, "weight_lbs"))

	assert.Empty(t, view.Dimension(2, "region"), "out of range")
	assert.Empty(t, view.Dimension(0, "month"), "unregistered dimension")
	assert.Zero(t, view.Measure(-1, "weight_lbs"))
	assert.Zero(t, view.Measure(0, "count_of_event"))

	rows[1].Lbs = 20
	assert.Equal(t, 20.0, view.Measure(1, "weight_lbs"), "the view reads rows in place")
}

func TestAdapterRegistration(t *testing.T) {
	adapter := seizureAdapter()
	bound := adapter.Bind([]seizure{{"R", "D", 1}})

	adapter.
		Dimension("region", func(s seizure) string { return "region " + s.Region }).
		Measure("count_of_event", func(seizure) float64 { return 1 })

	assert.Equal(t, "R", bound.Dimension(0, "region"), "bound views keep their accessors")
	assert.Equal(t, []string{"weight_lbs"}, bound.MeasureKeys())

	fresh := adapter.Bind([]seizure{{"R", "D", 1}})
	assert.Equal(t, "region R", fresh.Dimension(0, "region"))
	assert.Equal(t, []string{"region", "drug_type"}, fresh.DimensionKeys(), "replacing keeps registration order")
	assert.Equal(t, []string{"weight_lbs", "count_of_event"}, fresh.MeasureKeys())
}

func TestAdapterAggregateThroughFilter(t *testing.T) {
	view := seizureAdapter().Bind([]seizure{
		{"Southwest Border", "Methamphetamine", 900},
		{"Southwest Border", "Cocaine", 100},
		{"Northern Border", "Cocaine", 12.5},
	})

	sub := ApplyFilter(view, Include("drug_type", "Cocaine"))
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, "Northern Border", sub.Dimension(1, "region"))
	assert.Equal(t, view.DimensionKeys(), sub.DimensionKeys())
	assert.Empty(t, sub.Dimension(5, "region"))

	res, err := Aggregate(view, Query{
		GroupBy: []string{"region"},
		Measure: "weight_lbs",
		Filter:  Include("drug_type", "Cocaine"),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Value("Southwest Border"))
	assert.Equal(t, 12.5, res.Value("Northern Border"))
}
