package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ============================================================================
// AGGREGATOR: Grouping and reduction via RecordView
// ============================================================================
// Pipeline: validate → filter (subset) → group → reduce → order by key.
// Sums accumulate in decimal so totals do not depend on row order.
// ============================================================================

// Aggregate groups the rows of view by q.GroupBy and reduces q.Measure.
//
// The sum of all group values equals the sum of the measure over the rows
// that pass q.Filter. Entries come back in ascending key order.
func Aggregate(view RecordView, q Query) (*AggregationResult, error) {
	const op = "aggregate"

	reducer := q.Reducer
	if reducer == "" {
		reducer = Sum
	}
	if err := checkQuery(op, view, q, reducer); err != nil {
		return nil, err
	}

	filtered := ApplyFilter(view, q.Filter)

	type accumulator struct {
		key  GroupKey
		sum  decimal.Decimal
		rows int
	}
	groups := make(map[string]*accumulator)

	for i := 0; i < filtered.Len(); i++ {
		key := make(GroupKey, len(q.GroupBy))
		for j, field := range q.GroupBy {
			key[j] = filtered.Dimension(i, field)
		}

		id := key.id()
		acc, ok := groups[id]
		if !ok {
			acc = &accumulator{key: key, sum: decimal.Zero}
			groups[id] = acc
		}
		acc.rows++
		if reducer == Sum {
			acc.sum = acc.sum.Add(decimal.NewFromFloat(filtered.Measure(i, q.Measure)))
		}
	}

	entries := make([]Entry, 0, len(groups))
	for _, acc := range groups {
		e := Entry{Key: acc.key, Rows: acc.rows}
		switch reducer {
		case Sum:
			e.Value = acc.sum.InexactFloat64()
		case Count:
			e.Value = float64(acc.rows)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.Compare(entries[j].Key) < 0
	})

	return newResult(q.GroupBy, q.Measure, reducer, entries), nil
}

func checkQuery(op string, view RecordView, q Query, reducer Reducer) error {
	if reducer != Sum && reducer != Count {
		return newError(ErrInvalidArgument, op, string(reducer), "want sum or count")
	}
	if len(q.GroupBy) == 0 {
		return newError(ErrInvalidArgument, op, "", "group by needs at least one field")
	}
	for _, field := range q.GroupBy {
		if !hasDimension(view, field) {
			return newError(ErrInvalidField, op, field, "not a dimension")
		}
	}
	if q.Filter != nil {
		for _, field := range q.Filter.Fields() {
			if !hasDimension(view, field) {
				return newError(ErrInvalidField, op, field, "filter field is not a dimension")
			}
		}
	}

	switch {
	case q.Measure != "" && !hasMeasure(view, q.Measure):
		return newError(ErrInvalidField, op, q.Measure, "not a measure")
	case q.Measure == "" && reducer == Sum:
		return newError(ErrInvalidArgument, op, "", "sum needs a measure")
	}
	return nil
}

// UniqueValues returns the distinct non-empty values of a dimension in
// first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}
