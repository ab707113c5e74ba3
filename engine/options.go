package engine

// ============================================================================
// PIVOT OPTIONS: Functional options for Pivot() and PivotResult()
// ============================================================================

// PivotOption configures label ordering of a pivot.
type PivotOption func(*pivotConfig)

type pivotConfig struct {
	rowOrder    CanonicalSequence // nil = first-seen order
	columnOrder CanonicalSequence
}

// WithRowOrder reindexes the row axis to seq after pivoting.
func WithRowOrder(seq CanonicalSequence) PivotOption {
	return func(c *pivotConfig) {
		c.rowOrder = seq
	}
}

// WithColumnOrder reindexes the column axis to seq after pivoting.
// Passing a ranked label list keeps the columns in rank order.
func WithColumnOrder(seq CanonicalSequence) PivotOption {
	return func(c *pivotConfig) {
		c.columnOrder = seq
	}
}

func applyPivotOptions(opts []PivotOption) *pivotConfig {
	cfg := &pivotConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
