// Package report turns declarative section definitions into engine calls.
// Each section is one composition of Aggregate, TopN, PivotResult and the
// reindex functions; the runner evaluates them against a loaded dataset.
package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/seizures/engine"
	"github.com/spektr-org/seizures/schema"
)

// Chart kinds a section can request from the renderers.
const (
	ChartBar        = "bar"
	ChartStackedBar = "stacked_bar"
	ChartLine       = "line"
	ChartArea       = "area"
	ChartHeatmap    = "heatmap"
	ChartTable      = "table"
)

// Row orders a section can request.
const (
	OrderMonths       = "months"        // engine.Months
	OrderFiscalYears  = "fiscal_years"  // fiscal years present in the data
	OrderFiscalMonths = "fiscal_months" // "2021 JAN" … across every fiscal year
)

var charts = map[string]bool{
	ChartBar: true, ChartStackedBar: true, ChartLine: true,
	ChartArea: true, ChartHeatmap: true, ChartTable: true,
}

// Definition is a named list of report sections.
type Definition struct {
	Title    string    `yaml:"title" json:"title"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// Section declares one table of the report.
//
// Without Column the section is a ranking: Rows are aggregated and sorted
// by value (or by RowOrder). With Column the rows and column are pivoted into
// a wide table.
type Section struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Chart   string   `yaml:"chart" json:"chart"`
	Rows    []string `yaml:"rows" json:"rows"`
	Column  string   `yaml:"column,omitempty" json:"column,omitempty"`
	Measure string   `yaml:"measure,omitempty" json:"measure,omitempty"`
	Reducer string   `yaml:"reducer,omitempty" json:"reducer,omitempty"`

	Include map[string][]string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude map[string][]string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	TopRows    int    `yaml:"top_rows,omitempty" json:"top_rows,omitempty"`
	TopColumns int    `yaml:"top_columns,omitempty" json:"top_columns,omitempty"`
	RowOrder   string `yaml:"row_order,omitempty" json:"row_order,omitempty"`
	SplitBy    string `yaml:"split_by,omitempty" json:"split_by,omitempty"`
	Peaks      bool   `yaml:"peaks,omitempty" json:"peaks,omitempty"`
}

//go:embed default_report.yaml
var defaultReport []byte

// Default returns the built-in report.
func Default() *Definition {
	def, err := ParseDefinition(bytes.NewReader(defaultReport))
	if err != nil {
		panic(fmt.Sprintf("embedded report is invalid: %v", err))
	}
	return def
}

// LoadDefinition reads a definition file; an empty path yields Default().
func LoadDefinition(path string) (*Definition, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report definition: %w", err)
	}
	defer f.Close()
	return ParseDefinition(f)
}

// ParseDefinition decodes YAML, rejecting unknown keys, and validates it.
func ParseDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty report definition", engine.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: %v", engine.ErrConfiguration, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks section shape and that every field a section names exists
// in the seizure schema. Unknown fields wrap both ErrConfiguration and
// engine.ErrInvalidField.
func (d *Definition) Validate() error {
	if len(d.Sections) == 0 {
		return fmt.Errorf("%w: report has no sections", engine.ErrConfiguration)
	}
	sch := schema.Seizures()
	seen := make(map[string]bool, len(d.Sections))
	for i := range d.Sections {
		s := &d.Sections[i]
		if s.ID == "" {
			return fmt.Errorf("%w: section %d has no id", engine.ErrConfiguration, i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate section id %q", engine.ErrConfiguration, s.ID)
		}
		seen[s.ID] = true
		if s.Chart == "" {
			s.Chart = ChartBar
		}
		if err := s.validate(sch); err != nil {
			return fmt.Errorf("section %q: %w", s.ID, err)
		}
	}
	return nil
}

func (s *Section) validate(sch schema.Config) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{engine.ErrConfiguration}, args...)...)
	}

	if len(s.Rows) == 0 {
		return bad("rows must name at least one field")
	}
	if err := s.checkFields(sch); err != nil {
		return err
	}
	if !charts[s.Chart] {
		return bad("unknown chart %q", s.Chart)
	}
	reducer, err := engine.ParseReducer(s.Reducer)
	if err != nil {
		return bad("unknown reducer %q", s.Reducer)
	}
	if reducer == engine.Sum && s.Measure == "" {
		return bad("sum needs a measure")
	}
	if s.TopRows < 0 || s.TopColumns < 0 {
		return bad("top_rows and top_columns must not be negative")
	}

	switch s.RowOrder {
	case "":
	case OrderMonths, OrderFiscalYears:
		if len(s.Rows) != 1 {
			return bad("row_order %q needs exactly one row field", s.RowOrder)
		}
	case OrderFiscalMonths:
		if len(s.Rows) != 2 {
			return bad("row_order %q needs rows [fy, month]", s.RowOrder)
		}
	default:
		return bad("unknown row_order %q", s.RowOrder)
	}

	if s.Column == "" {
		if s.TopColumns > 0 || s.Peaks {
			return bad("top_columns and peaks need a column")
		}
		if s.RowOrder == OrderFiscalMonths {
			return bad("row_order %q needs a column", s.RowOrder)
		}
		if s.TopRows > 0 && s.RowOrder != "" {
			return bad("top_rows ranks by value and row_order sorts by label; set one")
		}
		return nil
	}
	if s.TopRows > 0 && len(s.Rows) != 1 {
		return bad("top_rows with a column needs exactly one row field")
	}
	if s.TopRows > 0 && s.RowOrder != "" {
		return bad("top_rows and row_order both set the row order")
	}
	return nil
}

// checkFields rejects dimensions and measures the schema does not define.
func (s *Section) checkFields(sch schema.Config) error {
	dims := sch.DimensionKeys()
	fields := slices.Clone(s.Rows)
	if s.Column != "" {
		fields = append(fields, s.Column)
	}
	if s.SplitBy != "" {
		fields = append(fields, s.SplitBy)
	}
	filtered := append(lo.Keys(s.Include), lo.Keys(s.Exclude)...)
	sort.Strings(filtered)
	fields = append(fields, filtered...)

	for _, f := range fields {
		if !lo.Contains(dims, f) {
			return fmt.Errorf("%w: %w: %q is not a dimension (want one of %s)",
				engine.ErrConfiguration, engine.ErrInvalidField, f, strings.Join(dims, ", "))
		}
	}
	if s.Measure != "" && !sch.IsMeasure(s.Measure) {
		return fmt.Errorf("%w: %w: %q is not a measure (want one of %s)",
			engine.ErrConfiguration, engine.ErrInvalidField, s.Measure, strings.Join(sch.MeasureKeys(), ", "))
	}
	return nil
}

// Filter combines the section's include and exclude lists, or nil.
func (s Section) Filter() engine.RowFilter {
	include := engine.Filters{Dimensions: s.Include}.Predicate()

	fields := make([]string, 0, len(s.Exclude))
	for f := range s.Exclude {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	filters := []engine.RowFilter{include}
	for _, f := range fields {
		if len(s.Exclude[f]) > 0 {
			filters = append(filters, engine.Exclude(f, s.Exclude[f]...))
		}
	}
	return engine.All(filters...)
}

// IDs lists the section ids in order.
func (d *Definition) IDs() []string {
	ids := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		ids[i] = s.ID
	}
	return ids
}

// Select returns a copy keeping only the named sections, in definition order.
// No ids selects everything.
func (d *Definition) Select(ids ...string) (*Definition, error) {
	if len(ids) == 0 {
		return d, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	out := &Definition{Title: d.Title}
	for _, s := range d.Sections {
		if want[s.ID] {
			out.Sections = append(out.Sections, s)
			delete(want, s.ID)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: unknown sections %v", engine.ErrConfiguration, missing)
	}
	return out, nil
}
