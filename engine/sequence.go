package engine

import (
	"slices"

	"github.com/apex/log"
)

// ============================================================================
// SEQUENCER: Align one axis to a fixed canonical ordering
// ============================================================================
// Labels outside the sequence are dropped with a warning (an expected data
// condition, not a programming error). Sequence labels missing from the data
// are inserted with the fill value.
// ============================================================================

// CanonicalSequence is an externally fixed label order such as the calendar.
type CanonicalSequence []string

// Months is the calendar in the dataset's month-code vocabulary.
var Months = CanonicalSequence{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// Validate rejects empty sequences and duplicate labels.
func (s CanonicalSequence) Validate() error {
	if len(s) == 0 {
		return newError(ErrConfiguration, "sequence", "", "empty canonical sequence")
	}
	seen := make(map[string]bool, len(s))
	for _, label := range s {
		if seen[label] {
			return newError(ErrConfiguration, "sequence", label, "duplicate label")
		}
		seen[label] = true
	}
	return nil
}

// Contains reports whether label is part of the sequence.
func (s CanonicalSequence) Contains(label string) bool {
	return slices.Contains(s, label)
}

// Cross builds the ordered product of two sequences, joining labels with sep:
// Cross({"2021","2022"}, Months, " ") → "2021 JAN" … "2022 DEC".
func Cross(outer, inner CanonicalSequence, sep string) CanonicalSequence {
	out := make(CanonicalSequence, 0, len(outer)*len(inner))
	for _, o := range outer {
		for _, in := range inner {
			out = append(out, o+sep+in)
		}
	}
	return out
}

// Axis selects the side of a WideTable to reindex.
type Axis int

const (
	RowAxis Axis = iota
	ColumnAxis
)

func (a Axis) String() string {
	if a == ColumnAxis {
		return "columns"
	}
	return "rows"
}

// ReindexTable returns a new table whose chosen axis is exactly seq.
// The other axis is untouched.
func ReindexTable(t *WideTable, axis Axis, seq CanonicalSequence) (*WideTable, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	labels := slices.Clone([]string(seq))
	var out *WideTable
	var old []string
	if axis == RowAxis {
		out = newWideTable(labels, slices.Clone(t.Columns), t.Fill)
		old = t.Rows
	} else {
		out = newWideTable(slices.Clone(t.Rows), labels, t.Fill)
		old = t.Columns
	}

	oldIdx := indexOf(old)
	for k, label := range labels {
		src, ok := oldIdx[label]
		if !ok {
			continue
		}
		if axis == RowAxis {
			copy(out.cells[k], t.cells[src])
			copy(out.present[k], t.present[src])
			continue
		}
		for i := range out.Rows {
			out.cells[i][k] = t.cells[i][src]
			out.present[i][k] = t.present[i][src]
		}
	}

	dropped := droppedLabels(old, seq)
	out.Dropped = append(slices.Clone(t.Dropped), dropped...)
	warnDropped(axis.String(), dropped)
	return out, nil
}

// ReindexResult reorders a single-field aggregation to seq. Groups whose
// label is not in seq are dropped; labels with no group get a zero entry.
func ReindexResult(r *AggregationResult, seq CanonicalSequence) (*AggregationResult, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	if len(r.Fields) != 1 {
		return nil, newError(ErrInvalidArgument, "reindex", "", "result must be keyed by exactly one field")
	}

	entries := make([]Entry, 0, len(seq))
	for _, label := range seq {
		e, ok := r.Get(label)
		if !ok {
			e = Entry{Key: GroupKey{label}}
		}
		entries = append(entries, e)
	}

	old := make([]string, 0, r.Len())
	for _, e := range r.entries {
		old = append(old, e.Key[0])
	}

	out := newResult(r.Fields, r.Measure, r.Reducer, entries)
	out.Dropped = droppedLabels(old, seq)
	warnDropped(r.Fields[0], out.Dropped)
	return out, nil
}

func droppedLabels(old []string, seq CanonicalSequence) []string {
	var dropped []string
	for _, label := range old {
		if !seq.Contains(label) {
			dropped = append(dropped, label)
		}
	}
	return dropped
}

func warnDropped(axis string, dropped []string) {
	if len(dropped) == 0 {
		return
	}
	log.WithFields(log.Fields{
		"axis":    axis,
		"dropped": dropped,
	}).Warn("reindex dropped labels outside canonical order")
}
