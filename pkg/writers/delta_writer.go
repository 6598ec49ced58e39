// Package writers emits computed deltas as delimited output files.
package writers

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tshea68/reliable-pull/pkg/diff"
)

// DeltaFiles holds the paths of the three emitted delta files.
type DeltaFiles struct {
	New     string `json:"new"`
	Removed string `json:"removed"`
	Changed string `json:"changed"`
}

// WriteDelta writes the three delta files next to outPrefix:
// <prefix>new.csv and <prefix>removed.csv each carry the key-column header
// followed by sorted keys; <prefix>changed.csv carries one row per changed
// key with an _old/_new column pair per compared field. All three files are
// written even when their result set is empty.
func WriteDelta(result *diff.Result, outPrefix string) (DeltaFiles, error) {
	files := DeltaFiles{
		New:     outPrefix + "new.csv",
		Removed: outPrefix + "removed.csv",
		Changed: outPrefix + "changed.csv",
	}

	if dir := filepath.Dir(outPrefix); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return files, fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := writeKeyList(files.New, result.KeyColumn, result.NewKeys); err != nil {
		return files, err
	}
	if err := writeKeyList(files.Removed, result.KeyColumn, result.RemovedKeys); err != nil {
		return files, err
	}
	if err := writeChanged(files.Changed, result); err != nil {
		return files, err
	}
	return files, nil
}

func writeKeyList(path, keyColumn string, keys []string) error {
	records := make([][]string, 0, len(keys)+1)
	records = append(records, []string{keyColumn})
	for _, k := range keys {
		records = append(records, []string{k})
	}
	return writeCSV(path, records)
}

func writeChanged(path string, result *diff.Result) error {
	// An empty changed set still produces a file, with just the key column.
	if len(result.Changed) == 0 {
		return writeCSV(path, [][]string{{result.KeyColumn}})
	}

	header := make([]string, 0, 1+2*len(result.CompareFields))
	header = append(header, result.KeyColumn)
	for _, f := range result.CompareFields {
		header = append(header, f+"_old", f+"_new")
	}

	records := make([][]string, 0, len(result.Changed)+1)
	records = append(records, header)
	for _, row := range result.Changed {
		rec := make([]string, 0, len(header))
		rec = append(rec, row.Key)
		for _, f := range result.CompareFields {
			change, ok := row.Fields[f]
			if !ok {
				rec = append(rec, "", "")
				continue
			}
			rec = append(rec, change.Old, change.New)
		}
		records = append(records, rec)
	}
	return writeCSV(path, records)
}

// writeCSV writes records to a temp file in the target directory and renames
// it into place, so a crash never leaves a partial output file.
func writeCSV(path string, records [][]string) error {
	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, base+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", path, err)
	}
	return nil
}
