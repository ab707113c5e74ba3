package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// ============================================================================
// CSV OUTPUT: Sheets-ready table per section
// ============================================================================

// WriteCSV writes the table with its header and Total row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.rows(fmtNum)); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}

// ============================================================================
// TEXT OUTPUT: Aligned tables for terminals
// ============================================================================

// WriteText writes each section as an aligned table under its title, with
// thousands separators. Peaks and dropped labels follow the table.
func WriteText(w io.Writer, doc *Document) error {
	if doc.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", doc.Title); err != nil {
			return err
		}
	}
	for _, s := range doc.Sections {
		if err := writeTextSection(w, s); err != nil {
			return err
		}
	}
	return nil
}

func writeTextSection(w io.Writer, s Section) error {
	if _, err := fmt.Fprintf(w, "== %s\n", s.Table.Title); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, row := range s.Table.rows(FormatNumber) {
		for _, cell := range row {
			fmt.Fprintf(tw, "%s\t", cell)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range s.Peaks {
		fmt.Fprintf(w, "peak: %s in %s (%s)\n", p.Column, p.Row, FormatNumber(p.Value))
	}
	if len(s.Dropped) > 0 {
		fmt.Fprintf(w, "dropped: %v\n", s.Dropped)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}
