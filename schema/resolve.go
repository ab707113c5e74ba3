package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ============================================================================
// HEADER RESOLUTION: Source columns → field keys
// ============================================================================
// Every header is normalized to snake_case and matched against each field's
// key, display name and aliases. Unmatched columns are reported, not fatal.
// A missing required column is fatal.
// ============================================================================

// ErrMissingColumn is returned when a required field has no source column.
var ErrMissingColumn = errors.New("missing required column")

// SkippedColumn records a source column that matched no field.
type SkippedColumn struct {
	Column string `json:"column"`
	Index  int    `json:"index"`
}

// Mapping maps field keys to column indices of one source.
type Mapping struct {
	Columns map[string]int  `json:"columns"`
	Skipped []SkippedColumn `json:"skipped,omitempty"`
}

// Index returns the column index for a field and whether it was found.
func (m Mapping) Index(key string) (int, bool) {
	i, ok := m.Columns[key]
	return i, ok
}

// Cell returns the row value for a field, or "" when the field has no column
// or the row is short.
func (m Mapping) Cell(row []string, key string) string {
	i, ok := m.Columns[key]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Resolve matches source headers to the fields of c. The first matching
// column wins when a source repeats a header.
func (c Config) Resolve(headers []string) (Mapping, error) {
	lookup := make(map[string]string)
	addNames := func(key, display string, aliases []string) {
		for _, name := range append([]string{key, display}, aliases...) {
			norm := toSnakeCase(name)
			if _, taken := lookup[norm]; !taken {
				lookup[norm] = key
			}
		}
	}
	for _, d := range c.Dimensions {
		if d.DerivedFrom == "" {
			addNames(d.Key, d.DisplayName, d.Aliases)
		}
	}
	for _, m := range c.Measures {
		addNames(m.Key, m.DisplayName, m.Aliases)
	}

	mapping := Mapping{Columns: make(map[string]int)}
	for i, header := range headers {
		key, ok := lookup[toSnakeCase(header)]
		if !ok {
			mapping.Skipped = append(mapping.Skipped, SkippedColumn{Column: header, Index: i})
			continue
		}
		if _, seen := mapping.Columns[key]; !seen {
			mapping.Columns[key] = i
		}
	}

	var missing []string
	for _, d := range c.Dimensions {
		if _, ok := mapping.Columns[d.Key]; d.Required && !ok {
			missing = append(missing, d.DisplayName)
		}
	}
	if len(missing) > 0 {
		return mapping, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return mapping, nil
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
// A UTF-8 byte-order mark left on the first header is dropped.
func toSnakeCase(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")

	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	return s
}
