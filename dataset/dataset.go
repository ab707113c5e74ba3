// Package dataset is the record store: typed seizure records, the immutable
// Dataset that holds them, and the loaders that build one from CSV, XLSX or
// SQLite sources.
package dataset

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/seizures/engine"
	"github.com/spektr-org/seizures/schema"
)

// Record is one aggregated seizure line of the source export.
type Record struct {
	Region               string  `json:"region"`
	DrugType             string  `json:"drug_type"`
	Month                string  `json:"month"`
	FY                   int     `json:"fy"`
	AreaOfResponsibility string  `json:"area_of_responsibility"`
	Component            string  `json:"component"`
	LandFilter           string  `json:"land_filter"`
	CountOfEvent         int     `json:"count_of_event"`
	WeightLbs            float64 `json:"weight_lbs"`
}

// Area is the area of responsibility without its " FIELD OFFICE" suffix.
func (r Record) Area() string {
	return strings.ReplaceAll(r.AreaOfResponsibility, " FIELD OFFICE", "")
}

// FYLabel is the fiscal year as a dimension value, "" when unknown.
func (r Record) FYLabel() string {
	if r.FY == 0 {
		return ""
	}
	return strconv.Itoa(r.FY)
}

// adapter exposes Record fields under the schema keys.
var adapter = engine.NewAdapter[Record]().
	Dimension(schema.FieldRegion, func(r Record) string { return r.Region }).
	Dimension(schema.FieldDrugType, func(r Record) string { return r.DrugType }).
	Dimension(schema.FieldMonth, func(r Record) string { return r.Month }).
	Dimension(schema.FieldFY, Record.FYLabel).
	Dimension(schema.FieldAreaOfResponsibility, func(r Record) string { return r.AreaOfResponsibility }).
	Dimension(schema.FieldArea, Record.Area).
	Dimension(schema.FieldComponent, func(r Record) string { return r.Component }).
	Dimension(schema.FieldLandFilter, func(r Record) string { return r.LandFilter }).
	Measure(schema.MeasureCountOfEvent, func(r Record) float64 { return float64(r.CountOfEvent) }).
	Measure(schema.MeasureWeightLbs, func(r Record) float64 { return r.WeightLbs })

// Dataset is an immutable, ordered collection of Records.
// Built once by a loader and only read afterwards, so it is safe to share
// between goroutines.
type Dataset struct {
	records []Record
	source  string
	skipped int
}

// New copies records into a Dataset.
func New(records []Record) *Dataset {
	return &Dataset{records: slices.Clone(records)}
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// At returns record i.
func (d *Dataset) At(i int) Record { return d.records[i] }

// Records returns a copy of every record in load order.
func (d *Dataset) Records() []Record { return slices.Clone(d.records) }

// Source names where the records came from ("" for in-memory datasets).
func (d *Dataset) Source() string { return d.source }

// Skipped is the number of source rows the loader rejected.
func (d *Dataset) Skipped() int { return d.skipped }

// View exposes the dataset to the engine. The view reads the dataset's own
// backing slice; nothing is copied.
func (d *Dataset) View() engine.RecordView {
	return adapter.Bind(d.records)
}

// FiscalYears returns the distinct fiscal years in ascending order, as the
// labels the fy dimension produces.
func (d *Dataset) FiscalYears() engine.CanonicalSequence {
	seen := make(map[int]bool)
	var years []int
	for _, r := range d.records {
		if r.FY != 0 && !seen[r.FY] {
			seen[r.FY] = true
			years = append(years, r.FY)
		}
	}
	sort.Ints(years)

	out := make(engine.CanonicalSequence, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}
