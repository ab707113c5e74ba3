package engine

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// ============================================================================
// RANKER: Top-N with a deterministic tie-break
// ============================================================================
// Order: value descending, then key ascending. The tie-break is part of the
// contract, not an artifact of the sort algorithm.
// ============================================================================

// TopN returns at most n entries of r, highest value first.
// Fewer than n groups is not an error: all of them are returned.
func TopN(r *AggregationResult, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, newError(ErrInvalidArgument, "top_n", "", fmt.Sprintf("n must be positive, got %d", n))
	}
	entries := r.Entries()
	SortEntries(entries)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// SortEntries orders entries by value descending, ties by ascending key.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Key.Compare(entries[j].Key) < 0
	})
}

// Partition is one slice of a ranking split on the first key field.
type Partition struct {
	Label   string  `json:"label"`
	Entries []Entry `json:"entries"`
}

// TopNWithin ranks separately inside each value of the first key field and
// keeps at most n entries per partition. Partitions come back in ascending
// label order. With keys (fy, drug_type) this answers "top 3 drugs per year".
func TopNWithin(r *AggregationResult, n int) ([]Partition, error) {
	const op = "top_n_within"
	if n <= 0 {
		return nil, newError(ErrInvalidArgument, op, "", fmt.Sprintf("n must be positive, got %d", n))
	}
	if len(r.Fields) < 2 {
		return nil, newError(ErrInvalidArgument, op, "", "needs at least two group-by fields")
	}

	grouped := lo.GroupBy(r.Entries(), func(e Entry) string { return e.Key[0] })
	labels := lo.Keys(grouped)
	sort.Strings(labels)

	out := make([]Partition, 0, len(labels))
	for _, label := range labels {
		entries := grouped[label]
		SortEntries(entries)
		if len(entries) > n {
			entries = entries[:n]
		}
		out = append(out, Partition{Label: label, Entries: entries})
	}
	return out, nil
}

// KeyLabels extracts the key value at pos from each entry, deduplicated,
// keeping entry order. Used to turn a ranking into a filter or axis order.
func KeyLabels(entries []Entry, pos int) []string {
	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		if pos >= 0 && pos < len(e.Key) {
			labels = append(labels, e.Key[pos])
		}
	}
	return lo.Uniq(labels)
}
