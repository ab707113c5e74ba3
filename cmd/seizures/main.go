package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spektr-org/seizures/config"
	"github.com/spektr-org/seizures/dataset"
	"github.com/spektr-org/seizures/engine"
	"github.com/spektr-org/seizures/render"
	"github.com/spektr-org/seizures/report"
	"github.com/spektr-org/seizures/schema"
)

// ============================================================================
// SEIZURES CLI: Drug seizure aggregation reports
// ============================================================================

const version = "0.3.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the resolved configuration between cobra hooks and commands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "seizures",
		Short:         "Aggregate, rank and reshape drug seizure statistics",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  seizures report --data seizures.csv --format csv,html --out reports
  seizures query --data seizures.csv --group-by region,drug_type --measure weight_lbs --pivot --top 5
  seizures describe --data seizures.xlsx --sheet Data
  seizures sections --report my_report.yaml`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.bindFlags(cmd); err != nil {
				return err
			}
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if err := cfg.SetupLogging(a.stderr); err != nil {
				return err
			}
			if cfg.File != "" {
				log.WithField("file", cfg.File).Debug("config loaded")
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default ./seizures.yaml)")
	pf.String("data", "", "Data file: .csv, .xlsx or .db/.sqlite")
	pf.String("table", dataset.DefaultTable, "SQLite table to read")
	pf.String("sheet", "", "XLSX sheet to read (default first sheet)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "cli", "Log format: cli, json, logfmt, text")

	root.AddCommand(
		a.newReportCmd(),
		a.newQueryCmd(),
		a.newDescribeCmd(),
		a.newSectionsCmd(),
	)
	return root
}

// flagKeys maps flag names to config keys. Only the running command's flags
// are bound, so commands may share a flag name.
var flagKeys = map[string]string{
	"data":       config.KeyData,
	"table":      config.KeyTable,
	"sheet":      config.KeySheet,
	"log-level":  config.KeyLogLevel,
	"log-format": config.KeyLogFormat,
	"report":     config.KeyReport,
	"sections":   config.KeySections,
	"out":        config.KeyOut,
	"format":     config.KeyFormats,
	"parallel":   config.KeyParallel,
}

func (a *app) bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}
	return nil
}

// ============================================================================
// REPORT
// ============================================================================

func (a *app) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Evaluate a report definition and write it in every requested format",
		Long: `Evaluate every section of a report definition (the built-in report when
--report is not given) and write the results to --out. Use --out - to print
the tables to standard output instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := a.definition()
			if err != nil {
				return err
			}
			ds, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			runner := report.NewRunner(ds, report.WithParallel(a.cfg.Parallel))
			results, err := runner.Run(cmd.Context(), def)
			if err != nil {
				return err
			}
			doc := render.NewDocument(def.Title, ds.Source(), results, schema.Seizures())

			if a.cfg.Out == "-" {
				return render.WriteText(a.stdout, doc)
			}
			written, err := render.WriteAll(a.cfg.Out, doc, a.cfg.Formats)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(a.stdout, path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.String("report", "", "Report definition YAML (default built-in report)")
	f.StringSlice("sections", nil, "Only evaluate these section ids")
	f.String("out", "out", "Output directory, or - for text on stdout")
	f.StringSlice("format", []string{render.FormatCSV, render.FormatXLSX, render.FormatHTML},
		"Output formats: "+strings.Join(render.Formats, ", "))
	f.Bool("parallel", false, "Evaluate sections concurrently")
	return cmd
}

// ============================================================================
// SECTIONS
// ============================================================================

func (a *app) newSectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List the sections of a report definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := a.definition()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCHART\tROWS\tCOLUMN\tTITLE")
			for _, s := range def.Sections {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Chart, strings.Join(s.Rows, ","), s.Column, s.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("report", "", "Report definition YAML (default built-in report)")
	return cmd
}

// ============================================================================
// DESCRIBE
// ============================================================================

func (a *app) newDescribeCmd() *cobra.Command {
	var measures []string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Summary statistics of each measure (count, mean, std, quartiles)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			summaries, err := engine.Describe(ds.View(), measures...)
			if err != nil {
				return err
			}
			return writeSummaries(a.stdout, summaries)
		},
	}
	cmd.Flags().StringSliceVar(&measures, "measure", nil,
		"Measures to describe, from "+strings.Join(schema.Seizures().MeasureKeys(), ", ")+" (default all)")
	return cmd
}

func writeSummaries(w io.Writer, summaries []engine.Summary) error {
	sch := schema.Seizures()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t", sch.Label(s.Measure))
	}
	fmt.Fprintln(tw)

	stats := []struct {
		name string
		get  func(engine.Summary) float64
	}{
		{"count", func(s engine.Summary) float64 { return float64(s.Count) }},
		{"mean", func(s engine.Summary) float64 { return s.Mean }},
		{"std", func(s engine.Summary) float64 { return s.Std }},
		{"min", func(s engine.Summary) float64 { return s.Min }},
		{"25%", func(s engine.Summary) float64 { return s.Q25 }},
		{"50%", func(s engine.Summary) float64 { return s.Median }},
		{"75%", func(s engine.Summary) float64 { return s.Q75 }},
		{"max", func(s engine.Summary) float64 { return s.Max }},
	}
	for _, stat := range stats {
		fmt.Fprintf(tw, "%s\t", stat.name)
		for _, s := range summaries {
			fmt.Fprintf(tw, "%s\t", render.FormatNumber(stat.get(s)))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// ============================================================================
// HELPERS
// ============================================================================

func (a *app) load(ctx context.Context) (*dataset.Dataset, error) {
	if a.cfg.Data == "" {
		return nil, errors.New("--data is required (or set SEIZURES_DATA)")
	}
	return dataset.Load(ctx, a.cfg.Data, a.cfg.DataOptions())
}

func (a *app) definition() (*report.Definition, error) {
	def, err := report.LoadDefinition(a.cfg.Report)
	if err != nil {
		return nil, err
	}
	return def.Select(a.cfg.Sections...)
}
