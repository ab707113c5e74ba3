package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/apex/log"
)

// ============================================================================
// CSV LOADER
// ============================================================================
// Consumer opens the file (or any stream); the loader maps headers through
// the schema and normalizes each row.
// ============================================================================

// LoadCSV reads a seizure export in CSV form. name labels the source in logs.
func LoadCSV(r io.Reader, name string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Read header
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty CSV", name)
		}
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	b, err := newBuilder(name, headers)
	if err != nil {
		return nil, err
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			b.skipped++
			log.WithFields(log.Fields{"source": name, "line": line}).WithError(err).Warn("skipping malformed row")
			continue
		}
		b.add(line, row)
	}
	return b.dataset(), nil
}
