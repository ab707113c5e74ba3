package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options select the part of a multi-table source to read.
type Options struct {
	Table string // SQLite table; "seizures" when empty
	Sheet string // XLSX sheet; first sheet when empty
}

// DefaultTable is the SQLite table read when Options.Table is empty.
const DefaultTable = "seizures"

// Load picks a loader from the file extension: .csv, .xlsx, or
// .db/.sqlite/.sqlite3.
func Load(ctx context.Context, path string, opts Options) (*Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open data: %w", err)
		}
		defer f.Close()
		return LoadCSV(f, path)

	case ".xlsx", ".xlsm":
		return LoadXLSX(path, opts.Sheet)

	case ".db", ".sqlite", ".sqlite3":
		table := opts.Table
		if table == "" {
			table = DefaultTable
		}
		return LoadSQLite(ctx, path, table)

	default:
		return nil, fmt.Errorf("unsupported data format %q", ext)
	}
}
