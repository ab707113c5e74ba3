package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apex/log"

	"github.com/spektr-org/seizures/schema"
)

// ============================================================================
// ROW NORMALIZATION: shared by every loader
// ============================================================================
// Loaders turn their source into header + string rows; builder does the rest.
// Rejected rows are logged and counted, never fatal.
// ============================================================================

var errBadRow = errors.New("bad row")

type builder struct {
	source  string
	mapping schema.Mapping
	records []Record
	skipped int
}

func newBuilder(source string, headers []string) (*builder, error) {
	mapping, err := schema.Seizures().Resolve(headers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if len(mapping.Skipped) > 0 {
		names := make([]string, len(mapping.Skipped))
		for i, s := range mapping.Skipped {
			names[i] = s.Column
		}
		log.WithFields(log.Fields{
			"source":  source,
			"columns": names,
		}).Debug("ignoring unknown columns")
	}
	return &builder{source: source, mapping: mapping}, nil
}

// add normalizes one source row. line is 1-based and used only in logs.
func (b *builder) add(line int, row []string) {
	rec, err := b.parse(row)
	if err != nil {
		b.skipped++
		log.WithFields(log.Fields{
			"source": b.source,
			"line":   line,
		}).WithError(err).Warn("skipping row")
		return
	}
	b.records = append(b.records, rec)
}

func (b *builder) parse(row []string) (Record, error) {
	cell := func(key string) string {
		return strings.TrimSpace(b.mapping.Cell(row, key))
	}

	rec := Record{
		Region:               cell(schema.FieldRegion),
		DrugType:             cell(schema.FieldDrugType),
		Month:                strings.ToUpper(cell(schema.FieldMonth)),
		AreaOfResponsibility: cell(schema.FieldAreaOfResponsibility),
		Component:            cell(schema.FieldComponent),
		LandFilter:           strings.ToUpper(cell(schema.FieldLandFilter)),
	}
	switch {
	case rec.Region == "":
		return Record{}, fmt.Errorf("%w: empty region", errBadRow)
	case rec.DrugType == "":
		return Record{}, fmt.Errorf("%w: empty drug type", errBadRow)
	case rec.Month == "":
		return Record{}, fmt.Errorf("%w: empty month", errBadRow)
	}

	var err error
	if rec.FY, err = parseFY(cell(schema.FieldFY)); err != nil {
		return Record{}, err
	}

	events, err := parseAmount(cell(schema.MeasureCountOfEvent))
	if err != nil {
		return Record{}, fmt.Errorf("count of event: %w", err)
	}
	if events != math.Trunc(events) {
		return Record{}, fmt.Errorf("%w: count of event %g is not a whole number", errBadRow, events)
	}
	rec.CountOfEvent = int(events)

	if rec.WeightLbs, err = parseAmount(cell(schema.MeasureWeightLbs)); err != nil {
		return Record{}, fmt.Errorf("weight: %w", err)
	}
	return rec, nil
}

func (b *builder) dataset() *Dataset {
	log.WithFields(log.Fields{
		"source":  b.source,
		"records": len(b.records),
		"skipped": b.skipped,
	}).Info("dataset loaded")
	return &Dataset{records: b.records, source: b.source, skipped: b.skipped}
}

// parseAmount reads a non-negative number. Empty means 0; thousands
// separators are allowed ("1,204.5").
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", errBadRow, s)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: negative value %q", errBadRow, s)
	}
	return f, nil
}

// parseFY accepts "2021", "21", "FY21" and "FY 2021". Two-digit years are in
// the 2000s. Empty means unknown (0).
func parseFY(s string) (int, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(s), "FY"))
	if s == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		s = strconv.Itoa(int(f))
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 0 {
		return 0, fmt.Errorf("%w: fiscal year %q", errBadRow, s)
	}
	if y < 100 {
		y += 2000
	}
	return y, nil
}
