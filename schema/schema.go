package schema

// ============================================================================
// SCHEMA: Describes the shape of the seizure dataset
// ============================================================================
// The dataset package uses it to map source headers onto record fields.
// The render package uses display names for column headers and chart axes.
// The engine never sees it: it discovers fields through RecordView.
// ============================================================================

// Field keys exposed to engine selectors.
const (
	FieldRegion               = "region"
	FieldDrugType             = "drug_type"
	FieldMonth                = "month"
	FieldFY                   = "fy"
	FieldAreaOfResponsibility = "area_of_responsibility"
	FieldArea                 = "area"
	FieldComponent            = "component"
	FieldLandFilter           = "land_filter"

	MeasureCountOfEvent = "count_of_event"
	MeasureWeightLbs    = "weight_lbs"
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"` // source headers accepted for this field
	Required    bool     `json:"required,omitempty"`
	IsTemporal  bool     `json:"isTemporal,omitempty"`
	DerivedFrom string   `json:"derivedFrom,omitempty"` // computed from another field, no source column
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Unit        string   `json:"unit,omitempty"` // "events", "lbs"
	Integer     bool     `json:"integer,omitempty"`
	Default     bool     `json:"default,omitempty"` // measure used when none is named
}

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string, aliases ...string) DimensionMeta {
	return DimensionMeta{
		Key:         key,
		DisplayName: displayName,
		Aliases:     aliases,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName, unit string, aliases ...string) MeasureMeta {
	return MeasureMeta{
		Key:         key,
		DisplayName: displayName,
		Unit:        unit,
		Aliases:     aliases,
	}
}

// Seizures returns the field registry of the CBP drug seizure export.
func Seizures() Config {
	region := DefaultDimension(FieldRegion, "Region")
	region.Required = true

	drug := DefaultDimension(FieldDrugType, "Drug Type")
	drug.Required = true

	month := DefaultDimension(FieldMonth, "Month", "Month (abbv)", "Month (abbr)")
	month.Required = true
	month.IsTemporal = true

	fy := DefaultDimension(FieldFY, "Fiscal Year", "Fiscal Year")
	fy.IsTemporal = true

	area := DefaultDimension(FieldArea, "Area")
	area.Description = "Area of responsibility without the FIELD OFFICE suffix"
	area.DerivedFrom = FieldAreaOfResponsibility

	events := DefaultMeasure(MeasureCountOfEvent, "Count of Event", "events", "Event Count")
	events.Integer = true

	weight := DefaultMeasure(MeasureWeightLbs, "Weight (lbs)", "lbs", "Sum Qty (lbs)", "Qty (lbs)")
	weight.Default = true

	return Config{
		Name:        "Drug Seizure Statistics",
		Version:     "1.0",
		Description: "Monthly drug seizure events and weights by region, office and component",
		Dimensions: []DimensionMeta{
			region,
			drug,
			month,
			fy,
			DefaultDimension(FieldAreaOfResponsibility, "Area of Responsibility", "AOR"),
			area,
			DefaultDimension(FieldComponent, "Component"),
			DefaultDimension(FieldLandFilter, "Land Filter"),
		},
		Measures: []MeasureMeta{
			events,
			weight,
		},
	}
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// GetDefaultMeasure returns the measure flagged Default, else the first one.
func (c Config) GetDefaultMeasure() string {
	for _, m := range c.Measures {
		if m.Default {
			return m.Key
		}
	}
	if len(c.Measures) > 0 {
		return c.Measures[0].Key
	}
	return ""
}

// Label returns the display name for a field key, or the key itself.
func (c Config) Label(key string) string {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d.DisplayName
		}
	}
	for _, m := range c.Measures {
		if m.Key == key {
			return m.DisplayName
		}
	}
	return key
}

// IsMeasure reports whether key names a measure.
func (c Config) IsMeasure(key string) bool {
	for _, m := range c.Measures {
		if m.Key == key {
			return true
		}
	}
	return false
}
