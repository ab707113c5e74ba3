// Package render writes evaluated report sections as CSV, XLSX, HTML, PNG,
// JSON or plain text. Every writer consumes the same two shapes: a Table
// (row labels plus numeric columns) and a Chart (categories plus series).
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/spektr-org/seizures/engine"
	"github.com/spektr-org/seizures/report"
	"github.com/spektr-org/seizures/schema"
)

// FormatInt formats an integer with comma separators: 1234567 → "1,234,567".
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatNumber groups thousands and keeps two decimals for fractional values.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	v = RoundTo2(v)
	if v == math.Trunc(v) {
		return FormatInt(int64(v))
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	whole := math.Trunc(v)
	cents := int64(math.Round((v - whole) * 100))
	if cents == 100 {
		whole, cents = whole+1, 0
	}
	return fmt.Sprintf("%s%s.%02d", sign, FormatInt(int64(whole)), cents)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fmtNum is the machine-readable form: whole numbers without decimals,
// fractional values with two.
func fmtNum(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// LabelForFields joins the display names of a composite row key.
func LabelForFields(sch schema.Config, fields []string) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = sch.Label(f)
	}
	return strings.Join(labels, " / ")
}

// LabelForValue names the number a section produces: the measure's display
// name for sums, "Count" for row counts.
func LabelForValue(sch schema.Config, s report.Section) string {
	reducer, err := engine.ParseReducer(s.Reducer)
	if err == nil && reducer == engine.Count {
		return "Count"
	}
	if s.Measure == "" {
		return "Value"
	}
	return sch.Label(s.Measure)
}
