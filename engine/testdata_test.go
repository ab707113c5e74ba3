package engine

import "sort"

// ============================================================================
// SHARED FIXTURES
// ============================================================================

// Record is an untyped fixture row.
type Record struct {
	Dimensions map[string]string
	Measures   map[string]float64
}

// mapView serves Records; its keys are the sorted union over all rows.
type mapView struct {
	records []Record
	dims    []string
	meas    []string
}

func rec(region, drug, month string, events, weight float64) Record {
	return Record{
		Dimensions: map[string]string{"region": region, "drug_type": drug, "month": month},
		Measures:   map[string]float64{"count_of_event": events, "weight_lbs": weight},
	}
}

func recordView(records []Record) RecordView {
	dims, meas := map[string]bool{}, map[string]bool{}
	for _, r := range records {
		for k := range r.Dimensions {
			dims[k] = true
		}
		for k := range r.Measures {
			meas[k] = true
		}
	}
	return &mapView{records: records, dims: sortedKeys(dims), meas: sortedKeys(meas)}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *mapView) Len() int { return len(v.records) }

func (v *mapView) Dimension(i int, key string) string {
	return v.records[i].Dimensions[key]
}

func (v *mapView) Measure(i int, key string) float64 {
	return v.records[i].Measures[key]
}

func (v *mapView) DimensionKeys() []string { return v.dims }

func (v *mapView) MeasureKeys() []string { return v.meas }

// seizureView is a small mixed dataset: three regions, four drug types,
// including the "Other Drugs**" catch-all bucket.
func seizureView() RecordView {
	return recordView([]Record{
		rec("Southwest Border", "Methamphetamine", "JAN", 12, 1500.5),
		rec("Southwest Border", "Marijuana", "JAN", 30, 4200),
		rec("Southwest Border", "Methamphetamine", "MAR", 8, 900.25),
		rec("Northern Border", "Marijuana", "FEB", 5, 310),
		rec("Northern Border", "Other Drugs**", "FEB", 2, 11.75),
		rec("Coastal/Interior", "Cocaine", "JUL", 4, 220),
		rec("Coastal/Interior", "Khat (Catha Edulis)", "JUL", 3, 1800),
		rec("Coastal/Interior", "Other Drugs**", "DEC", 6, 40.5),
		rec("Coastal/Interior", "Cocaine", "DEC", 1, 15),
	})
}
