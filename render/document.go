package render

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/apex/log"

	"github.com/spektr-org/seizures/report"
	"github.com/spektr-org/seizures/schema"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatText = "text"
)

// Formats lists every supported format.
var Formats = []string{FormatCSV, FormatXLSX, FormatHTML, FormatPNG, FormatJSON, FormatText}

// Section is one result laid out for output.
type Section struct {
	Name    string        `json:"name"`
	Table   Table         `json:"table"`
	Chart   Chart         `json:"chart"`
	Peaks   []report.Peak `json:"peaks,omitempty"`
	Dropped []string      `json:"dropped,omitempty"`
}

// Document is a whole report run.
type Document struct {
	Title    string    `json:"title"`
	RunID    string    `json:"run_id"`
	Source   string    `json:"source,omitempty"`
	Sections []Section `json:"sections"`
}

// NewDocument lays out results in order.
func NewDocument(title, source string, results []report.Result, sch schema.Config) *Document {
	doc := &Document{Title: title, Source: source, Sections: make([]Section, 0, len(results))}
	for _, res := range results {
		if doc.RunID == "" {
			doc.RunID = res.RunID
		}
		doc.Sections = append(doc.Sections, Section{
			Name:    res.Name(),
			Table:   BuildTable(res, sch),
			Chart:   BuildChart(res, sch),
			Peaks:   res.Peaks,
			Dropped: res.Dropped,
		})
	}
	return doc
}

// ParseFormats splits a comma-separated list, rejecting unknown names.
func ParseFormats(list []string) ([]string, error) {
	var out []string
	for _, item := range list {
		for _, f := range strings.Split(item, ",") {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" || slices.Contains(out, f) {
				continue
			}
			if !slices.Contains(Formats, f) {
				return nil, fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(Formats, ", "))
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// WriteAll writes doc into dir in each format and returns the paths written.
// CSV and PNG produce one file per section; the other formats one file each.
func WriteAll(dir string, doc *Document, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string
	create := func(name string, write func(f *os.File) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if err := write(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	for _, format := range formats {
		var err error
		switch format {
		case FormatCSV:
			for _, s := range doc.Sections {
				if err = create(s.Name+".csv", func(f *os.File) error { return WriteCSV(f, s.Table) }); err != nil {
					break
				}
			}
		case FormatPNG:
			for _, s := range doc.Sections {
				if !s.Chart.Plottable() {
					continue
				}
				if err = create(s.Name+".png", func(f *os.File) error { return WritePNG(f, s.Chart) }); err != nil {
					break
				}
			}
		case FormatXLSX:
			err = create("report.xlsx", func(f *os.File) error { return WriteXLSX(f, doc) })
		case FormatHTML:
			err = create("report.html", func(f *os.File) error { return WriteHTML(f, doc) })
		case FormatJSON:
			err = create("report.json", func(f *os.File) error { return WriteJSON(f, doc) })
		case FormatText:
			err = create("report.txt", func(f *os.File) error { return WriteText(f, doc) })
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return written, err
		}
	}

	log.WithFields(log.Fields{
		"run_id": doc.RunID,
		"dir":    dir,
		"files":  len(written),
	}).Info("report written")
	return written, nil
}
