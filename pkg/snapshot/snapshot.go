// Package snapshot loads a delimited export file into a keyed in-memory
// representation of its rows.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// KeyColumnError reports that the designated key column is missing from a
// file's header.
type KeyColumnError struct {
	Column string
	Path   string
}

func (e *KeyColumnError) Error() string {
	return fmt.Sprintf("key column %q not found in %s", e.Column, e.Path)
}

// Row maps column names to string values for a single record.
type Row map[string]string

// Snapshot is the keyed view of one tabular file: its header order and a
// map from key value to row. Read-only after Load.
type Snapshot struct {
	KeyColumn string
	Columns   []string
	Rows      map[string]Row
}

// Load reads a CSV file into a Snapshot keyed by keyColumn. Rows with an
// empty key, and later duplicates of an already-seen key, are dropped; the
// first occurrence wins. Records shorter than the header are padded with
// empty strings.
func Load(path, keyColumn string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &KeyColumnError{Column: keyColumn, Path: path}
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	keyIdx := -1
	for i, col := range header {
		if col == keyColumn {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return nil, &KeyColumnError{Column: keyColumn, Path: path}
	}

	rows := make(map[string]Row)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}

		key := strings.TrimSpace(row[keyColumn])
		if key == "" {
			continue
		}
		if _, seen := rows[key]; seen {
			continue
		}
		rows[key] = row
	}

	return &Snapshot{
		KeyColumn: keyColumn,
		Columns:   header,
		Rows:      rows,
	}, nil
}

// HasColumn reports whether the snapshot's header contains col.
func (s *Snapshot) HasColumn(col string) bool {
	for _, c := range s.Columns {
		if c == col {
			return true
		}
	}
	return false
}
