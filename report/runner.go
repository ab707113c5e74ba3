package report

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/spektr-org/seizures/dataset"
	"github.com/spektr-org/seizures/engine"
)

// ============================================================================
// RUNNER: Evaluates sections against one dataset
// ============================================================================
// Pipeline per section:
//   1. Build the row filter (include/exclude, then split value)
//   2. Rank columns and/or rows when top_* is set → Include filters + order
//   3. Aggregate rows (+ column)
//   4. Rank, reindex or pivot
//   5. Peaks per column when requested
//
// The dataset is immutable, so sections may run concurrently.
// ============================================================================

// Peak is the row holding a column's maximum.
type Peak struct {
	Column string  `json:"column"`
	Row    string  `json:"row"`
	Value  float64 `json:"value"`
}

// Result is one evaluated section, or one split of it.
type Result struct {
	RunID   string            `json:"run_id"`
	Section Section           `json:"section"`
	Split   string            `json:"split,omitempty"`
	Ranked  []engine.Entry    `json:"ranked,omitempty"`
	Table   *engine.WideTable `json:"table,omitempty"`
	Peaks   []Peak            `json:"peaks,omitempty"`
	Dropped []string          `json:"dropped,omitempty"`
}

// Name identifies the result in file names: the section id, plus the split
// value when the section is split.
func (r Result) Name() string {
	if r.Split == "" {
		return r.Section.ID
	}
	return r.Section.ID + "_" + r.Split
}

// Heading is the display title.
func (r Result) Heading() string {
	title := r.Section.Title
	if title == "" {
		title = r.Section.ID
	}
	if r.Split == "" {
		return title
	}
	return fmt.Sprintf("%s (%s %s)", title, r.Section.SplitBy, r.Split)
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallel evaluates each section in its own goroutine.
func WithParallel(on bool) Option {
	return func(r *Runner) {
		r.parallel = on
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// Runner evaluates report definitions against one dataset.
type Runner struct {
	ds       *dataset.Dataset
	view     engine.RecordView
	parallel bool
	runID    string
}

// NewRunner binds a runner to ds.
func NewRunner(ds *dataset.Dataset, opts ...Option) *Runner {
	r := &Runner{ds: ds, view: ds.View(), runID: uuid.NewString()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID identifies this runner's output in logs and rendered files.
func (r *Runner) RunID() string { return r.runID }

// Run evaluates every section of def. Results follow definition order, with
// split sections expanded in ascending split order.
func (r *Runner) Run(ctx context.Context, def *Definition) (results []Result, err error) {
	ctx = log.NewContext(ctx, log.WithFields(log.Fields{
		"run_id":   r.runID,
		"sections": len(def.Sections),
		"parallel": r.parallel,
	}))
	defer logger(ctx).Trace("report").Stop(&err)

	per := make([][]Result, len(def.Sections))
	errs := make([]error, len(def.Sections))

	if r.parallel {
		var wg sync.WaitGroup
		for i, s := range def.Sections {
			wg.Add(1)
			go func() {
				defer wg.Done()
				per[i], errs[i] = r.RunSection(ctx, s)
			}()
		}
		wg.Wait()
	} else {
		for i, s := range def.Sections {
			if per[i], errs[i] = r.RunSection(ctx, s); errs[i] != nil {
				break
			}
		}
	}

	for i, e := range errs {
		if e != nil {
			return nil, fmt.Errorf("section %q: %w", def.Sections[i].ID, e)
		}
	}
	for _, rs := range per {
		results = append(results, rs...)
	}
	return results, nil
}

// RunSection evaluates one section, expanding its split. Rows whose split
// value is empty belong to no split and are left out with a warning.
func (r *Runner) RunSection(ctx context.Context, s Section) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := s.Filter()
	if s.SplitBy == "" {
		res, err := r.evaluate(ctx, s, "", base, nil)
		if err != nil {
			return nil, err
		}
		return []Result{res}, nil
	}

	if err := r.checkSplit(s, base); err != nil {
		return nil, err
	}
	rows := engine.ApplyFilter(r.view, base)
	splits := engine.UniqueValues(rows, s.SplitBy)
	sort.Strings(splits)
	if blank := engine.ApplyFilter(rows, engine.Include(s.SplitBy, "")).Len(); blank > 0 {
		logger(ctx).WithFields(log.Fields{
			"section":  s.ID,
			"split_by": s.SplitBy,
			"rows":     blank,
		}).Warn("rows without a split value left out")
	}

	top, err := r.topColumnsPerSplit(s, base)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(splits))
	for _, split := range splits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.evaluate(ctx, s, split, engine.All(base, engine.Include(s.SplitBy, split)), top[split])
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// checkSplit validates the split field and filter against the view.
func (r *Runner) checkSplit(s Section, base engine.RowFilter) error {
	_, err := engine.Aggregate(r.view, engine.Query{GroupBy: []string{s.SplitBy}, Reducer: engine.Count, Filter: base})
	return err
}

// topColumnsPerSplit ranks the column values inside every split in one pass.
// It returns nil when the section keeps all columns.
func (r *Runner) topColumnsPerSplit(s Section, base engine.RowFilter) (map[string]engine.CanonicalSequence, error) {
	if s.Column == "" || s.TopColumns == 0 {
		return nil, nil
	}
	reducer, err := engine.ParseReducer(s.Reducer)
	if err != nil {
		return nil, err
	}
	res, err := engine.Aggregate(r.view, engine.Query{
		GroupBy: []string{s.SplitBy, s.Column},
		Measure: s.Measure,
		Reducer: reducer,
		Filter:  base,
	})
	if err != nil {
		return nil, err
	}
	parts, err := engine.TopNWithin(res, s.TopColumns)
	if err != nil {
		return nil, err
	}
	top := make(map[string]engine.CanonicalSequence, len(parts))
	for _, p := range parts {
		top[p.Label] = engine.KeyLabels(p.Entries, 1)
	}
	return top, nil
}

// evaluate computes one result. topColumns, when not nil, is the already
// ranked column set for this split.
func (r *Runner) evaluate(ctx context.Context, s Section, split string, filter engine.RowFilter, topColumns engine.CanonicalSequence) (Result, error) {
	out := Result{RunID: r.runID, Section: s, Split: split}
	reducer, err := engine.ParseReducer(s.Reducer)
	if err != nil {
		return out, err
	}
	query := func(groupBy []string, f engine.RowFilter) (*engine.AggregationResult, error) {
		return engine.Aggregate(r.view, engine.Query{GroupBy: groupBy, Measure: s.Measure, Reducer: reducer, Filter: f})
	}
	seq, err := r.sequence(s.RowOrder)
	if err != nil {
		return out, err
	}

	// Ranking section.
	if s.Column == "" {
		res, err := query(s.Rows, filter)
		if err != nil {
			return out, err
		}
		switch {
		case len(seq) > 0:
			if res, err = engine.ReindexResult(res, seq); err != nil {
				return out, err
			}
			out.Ranked, out.Dropped = res.Entries(), res.Dropped
		case res.Len() > 0:
			n := s.TopRows
			if n == 0 {
				n = res.Len()
			}
			if out.Ranked, err = engine.TopN(res, n); err != nil {
				return out, err
			}
		}
		r.logSection(ctx, out)
		return out, nil
	}

	// Wide section. Rankings use the unrestricted filter so that the top
	// columns do not depend on the top rows and vice versa.
	var opts []engine.PivotOption
	restricted := filter
	if s.TopColumns > 0 {
		labels := topColumns
		if labels == nil {
			if labels, err = r.topLabels(query, []string{s.Column}, filter, s.TopColumns); err != nil {
				return out, err
			}
		}
		restricted = engine.All(restricted, engine.Include(s.Column, labels...))
		if len(labels) > 0 {
			opts = append(opts, engine.WithColumnOrder(labels))
		}
	}
	if s.TopRows > 0 {
		labels, err := r.topLabels(query, s.Rows, filter, s.TopRows)
		if err != nil {
			return out, err
		}
		restricted = engine.All(restricted, engine.Include(s.Rows[0], labels...))
		if len(labels) > 0 {
			opts = append(opts, engine.WithRowOrder(labels))
		}
	}
	if len(seq) > 0 {
		opts = append(opts, engine.WithRowOrder(seq))
	}

	res, err := query(append(slices.Clone(s.Rows), s.Column), restricted)
	if err != nil {
		return out, err
	}
	if out.Table, err = engine.PivotResult(res, 0, opts...); err != nil {
		return out, err
	}
	out.Dropped = out.Table.Dropped

	if s.Peaks {
		for _, col := range out.Table.Columns {
			if row, v, ok := out.Table.Peak(col); ok {
				out.Peaks = append(out.Peaks, Peak{Column: col, Row: row, Value: v})
			}
		}
	}
	r.logSection(ctx, out)
	return out, nil
}

func (r *Runner) topLabels(
	query func([]string, engine.RowFilter) (*engine.AggregationResult, error),
	groupBy []string, filter engine.RowFilter, n int,
) (engine.CanonicalSequence, error) {
	res, err := query(groupBy, filter)
	if err != nil {
		return nil, err
	}
	top, err := engine.TopN(res, n)
	if err != nil {
		return nil, err
	}
	return engine.KeyLabels(top, 0), nil
}

// sequence resolves a row_order name. Fiscal orders come from the data; a
// dataset without fiscal years yields an empty order (no reindexing).
func (r *Runner) sequence(name string) (engine.CanonicalSequence, error) {
	switch name {
	case "":
		return nil, nil
	case OrderMonths:
		return engine.Months, nil
	case OrderFiscalYears:
		return r.ds.FiscalYears(), nil
	case OrderFiscalMonths:
		return engine.Cross(r.ds.FiscalYears(), engine.Months, " "), nil
	}
	return nil, fmt.Errorf("%w: unknown row_order %q", engine.ErrConfiguration, name)
}

func (r *Runner) logSection(ctx context.Context, res Result) {
	entry := logger(ctx).WithFields(log.Fields{
		"section": res.Section.ID,
		"split":   res.Split,
	})
	if res.Table != nil {
		entry = entry.WithFields(log.Fields{
			"rows":    len(res.Table.Rows),
			"columns": len(res.Table.Columns),
		})
	} else {
		entry = entry.WithField("groups", len(res.Ranked))
	}
	entry.Debug("section evaluated")
}

// logger returns the run logger carried by ctx, or the package logger.
func logger(ctx context.Context) log.Interface {
	if l := log.FromContext(ctx); l != nil {
		return l
	}
	return log.Log
}
