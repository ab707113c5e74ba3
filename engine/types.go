package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// GROUP KEY
// ============================================================================
// Everything in this file is a value produced per query and discarded by the
// caller. No type carries identity across queries.
// ============================================================================

// GroupKey is the ordered tuple of dimension values a group was formed from.
type GroupKey []string

// Compare orders keys element by element (byte-wise, case-sensitive).
// A key that is a prefix of another sorts first.
func (k GroupKey) Compare(other GroupKey) int {
	for i := 0; i < len(k) && i < len(other); i++ {
		if c := strings.Compare(k[i], other[i]); c != 0 {
			return c
		}
	}
	return len(k) - len(other)
}

// Equal reports whether both keys hold the same values in the same order.
func (k GroupKey) Equal(other GroupKey) bool {
	return slices.Equal(k, other)
}

// String renders the key for logs and labels: "Southwest Border / Methamphetamine".
func (k GroupKey) String() string {
	return strings.Join(k, " / ")
}

// id is the map key used internally. Each value is length-prefixed, so no
// two distinct keys share an id whatever bytes the values hold.
func (k GroupKey) id() string {
	var b strings.Builder
	for _, v := range k {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

// ============================================================================
// REDUCER
// ============================================================================

// Reducer selects how a group's rows collapse into a single number.
type Reducer string

const (
	Sum   Reducer = "sum"   // arithmetic sum of the measure
	Count Reducer = "count" // number of rows, measure ignored
)

// ParseReducer accepts "sum" or "count" (case-insensitive). Empty means Sum.
func ParseReducer(s string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sum":
		return Sum, nil
	case "count":
		return Count, nil
	}
	return "", newError(ErrInvalidArgument, "reducer", s, "want sum or count")
}

// ============================================================================
// QUERY
// ============================================================================

// Query describes one aggregation.
type Query struct {
	GroupBy []string  // dimension keys, in key order
	Measure string    // measure key; optional for Count
	Reducer Reducer   // Sum when empty
	Filter  RowFilter // optional; rows it rejects are excluded from every total
}

// ============================================================================
// AGGREGATION RESULT
// ============================================================================

// Entry is one group of an AggregationResult.
type Entry struct {
	Key   GroupKey `json:"key"`
	Value float64  `json:"value"`
	Rows  int      `json:"rows"` // input rows folded into this group
}

// AggregationResult maps each GroupKey to its reduced value.
// Entries are kept in a defined order: ascending key after Aggregate,
// canonical order after ReindexResult.
type AggregationResult struct {
	Fields  []string // group-by fields the keys were built from
	Measure string
	Reducer Reducer

	// Dropped lists labels removed by the last ReindexResult.
	Dropped []string

	entries []Entry
	index   map[string]int
}

func newResult(fields []string, measure string, reducer Reducer, entries []Entry) *AggregationResult {
	r := &AggregationResult{
		Fields:  slices.Clone(fields),
		Measure: measure,
		Reducer: reducer,
		entries: entries,
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		r.index[e.Key.id()] = i
	}
	return r
}

// Len returns the number of groups.
func (r *AggregationResult) Len() int { return len(r.entries) }

// Entries returns a copy of the groups in result order.
func (r *AggregationResult) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{Key: slices.Clone(e.Key), Value: e.Value, Rows: e.Rows}
	}
	return out
}

// Keys returns the group keys in result order.
func (r *AggregationResult) Keys() []GroupKey {
	keys := make([]GroupKey, len(r.entries))
	for i, e := range r.entries {
		keys[i] = slices.Clone(e.Key)
	}
	return keys
}

// Get looks up a group by its key values.
func (r *AggregationResult) Get(key ...string) (Entry, bool) {
	i, ok := r.index[GroupKey(key).id()]
	if !ok {
		return Entry{}, false
	}
	e := r.entries[i]
	return Entry{Key: slices.Clone(e.Key), Value: e.Value, Rows: e.Rows}, true
}

// Value returns a group's value, or 0 when the group is absent.
func (r *AggregationResult) Value(key ...string) float64 {
	e, _ := r.Get(key...)
	return e.Value
}

// Total sums every group value.
func (r *AggregationResult) Total() float64 {
	total := decimal.Zero
	for _, e := range r.entries {
		total = total.Add(decimal.NewFromFloat(e.Value))
	}
	return total.InexactFloat64()
}

func (r *AggregationResult) String() string {
	return fmt.Sprintf("%s(%s) by %s: %d groups", r.Reducer, r.Measure, strings.Join(r.Fields, ","), len(r.entries))
}
