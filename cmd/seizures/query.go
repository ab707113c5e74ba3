package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/seizures/render"
	"github.com/spektr-org/seizures/report"
	"github.com/spektr-org/seizures/schema"
)

// ============================================================================
// QUERY: One ad-hoc section from flags
// ============================================================================

type queryFlags struct {
	groupBy []string
	measure string
	reducer string
	top     int
	pivot   bool
	peaks   bool
	order   string
	include []string
	exclude []string
	output  string
}

func (a *app) newQueryCmd() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Aggregate, rank or pivot the data once and print the table",
		Long: `Group the data by --group-by and reduce each group with --reducer.
Without --pivot the groups are ranked by value (or ordered by --order);
with --pivot the last group-by field becomes the columns of a wide table.`,
		Example: `  seizures query --data s.csv --group-by drug_type --measure weight_lbs --top 10
  seizures query --data s.csv --group-by month --reducer count --order months
  seizures query --data s.csv --group-by month,drug_type --measure count_of_event \
      --pivot --top 3 --order months --peaks --exclude "drug_type=Other Drugs**"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := q.definition()
			if err != nil {
				return err
			}
			ds, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			results, err := report.NewRunner(ds).Run(cmd.Context(), def)
			if err != nil {
				return err
			}
			doc := render.NewDocument("", ds.Source(), results, schema.Seizures())

			switch q.output {
			case render.FormatJSON:
				return render.WriteJSON(a.stdout, doc)
			case render.FormatCSV:
				for _, s := range doc.Sections {
					if err := render.WriteCSV(a.stdout, s.Table); err != nil {
						return err
					}
				}
				return nil
			default:
				return render.WriteText(a.stdout, doc)
			}
		},
	}

	sch := schema.Seizures()
	f := cmd.Flags()
	f.StringSliceVar(&q.groupBy, "group-by", nil,
		"Fields to group by, comma-separated (required): "+strings.Join(sch.DimensionKeys(), ", "))
	f.StringVar(&q.measure, "measure", sch.GetDefaultMeasure(),
		"Measure to sum: "+strings.Join(sch.MeasureKeys(), ", "))
	f.StringVar(&q.reducer, "reducer", "sum", "Reducer: sum or count")
	f.IntVar(&q.top, "top", 0, "Keep the N largest groups (columns with --pivot); not with --order unless --pivot")
	f.BoolVar(&q.pivot, "pivot", false, "Pivot the last group-by field into columns")
	f.BoolVar(&q.peaks, "peaks", false, "Report the peak row of every column (needs --pivot)")
	f.StringVar(&q.order, "order", "", "Row order: months, fiscal_years or fiscal_months")
	f.StringArrayVar(&q.include, "include", nil, "Keep only rows where field=value (repeatable)")
	f.StringArrayVar(&q.exclude, "exclude", nil, "Drop rows where field=value (repeatable)")
	f.StringVarP(&q.output, "output", "o", render.FormatText, "Output: text, csv or json")
	_ = cmd.MarkFlagRequired("group-by")
	return cmd
}

// definition turns the flags into a one-section report.
func (q queryFlags) definition() (*report.Definition, error) {
	switch q.output {
	case render.FormatText, render.FormatCSV, render.FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output %q (want text, csv or json)", q.output)
	}

	include, err := parseAssignments(q.include)
	if err != nil {
		return nil, err
	}
	exclude, err := parseAssignments(q.exclude)
	if err != nil {
		return nil, err
	}

	s := report.Section{
		ID:       "query",
		Chart:    report.ChartTable,
		Rows:     q.groupBy,
		Measure:  q.measure,
		Reducer:  q.reducer,
		Include:  include,
		Exclude:  exclude,
		RowOrder: q.order,
		Peaks:    q.peaks,
	}
	if q.pivot {
		if len(q.groupBy) < 2 {
			return nil, errors.New("--pivot needs at least two --group-by fields")
		}
		last := len(q.groupBy) - 1
		s.Rows, s.Column = q.groupBy[:last], q.groupBy[last]
		s.TopColumns = q.top
	} else {
		s.TopRows = q.top
	}
	s.Title = queryTitle(s)

	def := &report.Definition{Sections: []report.Section{s}}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func queryTitle(s report.Section) string {
	sch := schema.Seizures()
	fields := s.Rows
	if s.Column != "" {
		fields = append(append([]string(nil), s.Rows...), s.Column)
	}
	return fmt.Sprintf("%s by %s", render.LabelForValue(sch, s), render.LabelForFields(sch, fields))
}

// parseAssignments reads field=value pairs into a filter map.
func parseAssignments(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string)
	for _, p := range pairs {
		field, value, ok := strings.Cut(p, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("filter %q: want field=value", p)
		}
		out[field] = append(out[field], strings.TrimSpace(value))
	}
	return out, nil
}
