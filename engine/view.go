package engine

import "github.com/samber/lo"

// ============================================================================
// RECORD VIEW: Read-only row access for the engine
// ============================================================================
// The engine never copies or owns caller data. Datasets expose their rows
// through an Adapter; filtering narrows a view to a subset of row indices.
// ============================================================================

// RecordView provides indexed access to a dataset.
// Dimension and Measure run once per row per field; keep them cheap.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// subset is the rows of parent at the given indices, in index order.
type subset struct {
	parent RecordView
	rows   []int
}

func (s *subset) Len() int { return len(s.rows) }

func (s *subset) Dimension(i int, key string) string {
	if i < 0 || i >= len(s.rows) {
		return ""
	}
	return s.parent.Dimension(s.rows[i], key)
}

func (s *subset) Measure(i int, key string) float64 {
	if i < 0 || i >= len(s.rows) {
		return 0
	}
	return s.parent.Measure(s.rows[i], key)
}

func (s *subset) DimensionKeys() []string { return s.parent.DimensionKeys() }
func (s *subset) MeasureKeys() []string   { return s.parent.MeasureKeys() }

// ============================================================================
// ADAPTER: Typed rows behind accessor functions
// ============================================================================
//
//	adapter := engine.NewAdapter[Seizure]().
//	    Dimension("region", func(s Seizure) string { return s.Region }).
//	    Measure("weight_lbs", func(s Seizure) float64 { return s.WeightLbs })
//
//	totals, _ := engine.Aggregate(adapter.Bind(rows), engine.Query{
//	    GroupBy: []string{"region"}, Measure: "weight_lbs"})
//
// ============================================================================

// accessors keeps registration order next to the lookup table.
type accessors[F any] struct {
	keys []string
	get  map[string]F
}

func (a *accessors[F]) add(key string, fn F) {
	if a.get == nil {
		a.get = make(map[string]F)
	}
	if _, ok := a.get[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.get[key] = fn
}

func (a accessors[F]) clone() accessors[F] {
	out := accessors[F]{keys: append([]string(nil), a.keys...), get: make(map[string]F, len(a.get))}
	for k, fn := range a.get {
		out.get[k] = fn
	}
	return out
}

// Adapter describes how a struct type maps onto dimensions and measures.
// Register fields once; Bind any number of slices.
type Adapter[T any] struct {
	dims accessors[func(T) string]
	meas accessors[func(T) float64]
}

// NewAdapter returns an empty adapter for T.
func NewAdapter[T any]() *Adapter[T] {
	return &Adapter[T]{}
}

// Dimension registers key; registering a key again replaces its accessor.
func (a *Adapter[T]) Dimension(key string, fn func(T) string) *Adapter[T] {
	a.dims.add(key, fn)
	return a
}

// Measure registers key; registering a key again replaces its accessor.
func (a *Adapter[T]) Measure(key string, fn func(T) float64) *Adapter[T] {
	a.meas.add(key, fn)
	return a
}

// Bind returns a view reading rows in place. Later registrations on the
// adapter do not affect views already bound.
func (a *Adapter[T]) Bind(rows []T) RecordView {
	return &typedView[T]{rows: rows, dims: a.dims.clone(), meas: a.meas.clone()}
}

type typedView[T any] struct {
	rows []T
	dims accessors[func(T) string]
	meas accessors[func(T) float64]
}

func (v *typedView[T]) Len() int { return len(v.rows) }

func (v *typedView[T]) Dimension(i int, key string) string {
	fn, ok := v.dims.get[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return ""
	}
	return fn(v.rows[i])
}

func (v *typedView[T]) Measure(i int, key string) float64 {
	fn, ok := v.meas.get[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return 0
	}
	return fn(v.rows[i])
}

func (v *typedView[T]) DimensionKeys() []string { return v.dims.keys }
func (v *typedView[T]) MeasureKeys() []string   { return v.meas.keys }

func hasDimension(view RecordView, key string) bool {
	return lo.Contains(view.DimensionKeys(), key)
}

func hasMeasure(view RecordView, key string) bool {
	return lo.Contains(view.MeasureKeys(), key)
}
