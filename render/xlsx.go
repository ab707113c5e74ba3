package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Report"
	maxSheetName  = 31
	sheetNameCuts = `:\/?*[]`
)

// WriteXLSX writes a workbook: a "Report" sheet indexing the sections, then
// one sheet per section holding its table. Numbers are stored as numbers.
func WriteXLSX(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      doc.Title,
		Identifier: doc.RunID,
		Subject:    doc.Source,
		Creator:    "seizures",
	}); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	index := [][]any{
		{doc.Title},
		{"Run", doc.RunID},
		{"Source", doc.Source},
		{},
		{"Sheet", "Section", "Rows"},
	}
	used := map[string]bool{strings.ToLower(summarySheet): true}
	for _, s := range doc.Sections {
		name := sheetName(s.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, s.Table, bold); err != nil {
			return fmt.Errorf("xlsx: sheet %s: %w", name, err)
		}
		index = append(index, []any{name, s.Table.Title, len(s.Table.Labels)})
	}

	if err := setRows(f, summarySheet, index); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetRowStyle(summarySheet, 1, 1, bold); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetRowStyle(summarySheet, 5, 5, bold); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 32); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table, bold int) error {
	rows := make([][]any, 0, len(t.Labels)+2)

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	rows = append(rows, header)

	for i, label := range t.Labels {
		row := make([]any, 0, len(t.Columns))
		row = append(row, label)
		for _, v := range t.Values[i] {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	if t.Summary != nil {
		row := []any{t.Summary.Label}
		for _, v := range t.Summary.Values {
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	if err := setRows(f, sheet, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	if t.Summary != nil {
		if err := f.SetRowStyle(sheet, len(rows), len(rows), bold); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 28)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// sheetName fits name to Excel's sheet-name rules and makes it unique.
func sheetName(name string, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(sheetNameCuts, r) {
			return '_'
		}
		return r
	}, name)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		base := name
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate = base + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
