// Package seizures aggregates, ranks and reshapes drug seizure statistics.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/seizures/dataset"
//	    "github.com/spektr-org/seizures/engine"
//	)
//
//	ds, err := dataset.Load(ctx, "seizures.csv", dataset.Options{})
//	res, err := engine.Aggregate(ds.View(), engine.Query{
//	    GroupBy: []string{"region", "drug_type"},
//	    Measure: "weight_lbs",
//	})
//	wide, err := engine.PivotResult(res, 0)
//
// The engine is pure: it reads records through engine.RecordView and never
// does I/O. Loading lives in dataset, declarative report sections in report,
// output formats in render, and the command line in cmd/seizures.
package seizures
