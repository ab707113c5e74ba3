package engine

import (
	"sort"
)

// ============================================================================
// FILTERS: Row predicates evaluated before grouping
// ============================================================================
// Filtering yields a subset view (row indices into the parent); no data is copied.
// Values compare exactly: callers normalize case at load time.
// ============================================================================

// RowFilter decides whether row i of a view takes part in an aggregation.
// Fields lists the dimensions it reads so Aggregate can reject unknown ones.
type RowFilter interface {
	Keep(view RecordView, i int) bool
	Fields() []string
}

// FilterFunc adapts a plain function. It declares no fields, so nothing it
// reads is checked against the schema.
type FilterFunc func(view RecordView, i int) bool

func (f FilterFunc) Keep(view RecordView, i int) bool { return f(view, i) }
func (f FilterFunc) Fields() []string                 { return nil }

type valueFilter struct {
	field string
	set   map[string]bool
	keep  bool // true: keep listed values; false: drop them
}

func (f valueFilter) Keep(view RecordView, i int) bool {
	return f.set[view.Dimension(i, f.field)] == f.keep
}

func (f valueFilter) Fields() []string { return []string{f.field} }

// Include keeps rows whose field equals one of values.
func Include(field string, values ...string) RowFilter {
	return valueFilter{field: field, set: toSet(values), keep: true}
}

// Exclude drops rows whose field equals one of values.
// Exclude("drug_type", "Other Drugs**") removes the catch-all bucket.
func Exclude(field string, values ...string) RowFilter {
	return valueFilter{field: field, set: toSet(values), keep: false}
}

type allFilter []RowFilter

func (a allFilter) Keep(view RecordView, i int) bool {
	for _, f := range a {
		if !f.Keep(view, i) {
			return false
		}
	}
	return true
}

func (a allFilter) Fields() []string {
	var fields []string
	for _, f := range a {
		fields = append(fields, f.Fields()...)
	}
	return fields
}

// All combines filters with AND. Nil filters are skipped; with nothing left
// the result is nil (no filtering).
func All(filters ...RowFilter) RowFilter {
	var out allFilter
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Filters is the declarative form used by report definitions.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions" yaml:"dimensions"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Predicate converts the declaration into a RowFilter, or nil when empty.
func (f Filters) Predicate() RowFilter {
	if f.IsEmpty() {
		return nil
	}
	dims := make([]string, 0, len(f.Dimensions))
	for dim, vals := range f.Dimensions {
		if len(vals) > 0 {
			dims = append(dims, dim)
		}
	}
	sort.Strings(dims)

	filters := make([]RowFilter, 0, len(dims))
	for _, dim := range dims {
		filters = append(filters, Include(dim, f.Dimensions[dim]...))
	}
	return All(filters...)
}

// ApplyFilter returns a view of the rows the filter keeps.
// A nil filter returns the original view.
func ApplyFilter(view RecordView, filter RowFilter) RecordView {
	if filter == nil {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if filter.Keep(view, i) {
			indices = append(indices, i)
		}
	}
	return &subset{parent: view, rows: indices}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
