// Package diff computes the keyed delta between two snapshots of a tabular
// dataset: new keys, removed keys, and field-level changes for shared keys.
package diff

import (
	"sort"
	"strings"

	"github.com/tshea68/reliable-pull/pkg/snapshot"
)

// FieldChange holds the old and new values of one differing field.
type FieldChange struct {
	Old string
	New string
}

// ChangedRow records the differing fields for one shared key. Unchanged
// fields are omitted.
type ChangedRow struct {
	Key    string
	Fields map[string]FieldChange
}

// Result is the computed delta between an old and a new snapshot. NewKeys,
// RemovedKeys and the keys of Changed are pairwise disjoint and together
// partition the union of both snapshots' key sets.
type Result struct {
	KeyColumn     string
	CompareFields []string
	NewKeys       []string
	RemovedKeys   []string
	Changed       []ChangedRow
}

// Diff loads both files and computes their delta. compareFields may be nil,
// in which case all columns present in both files (except the key column)
// are compared.
func Diff(oldPath, newPath, keyColumn string, compareFields []string) (*Result, error) {
	oldSnap, err := snapshot.Load(oldPath, keyColumn)
	if err != nil {
		return nil, err
	}
	newSnap, err := snapshot.Load(newPath, keyColumn)
	if err != nil {
		return nil, err
	}
	return DiffSnapshots(oldSnap, newSnap, compareFields), nil
}

// DiffSnapshots computes the delta between two already-loaded snapshots.
func DiffSnapshots(oldSnap, newSnap *snapshot.Snapshot, compareFields []string) *Result {
	result := &Result{
		KeyColumn:     oldSnap.KeyColumn,
		CompareFields: resolveCompareFields(oldSnap, newSnap, compareFields),
	}

	shared := make([]string, 0, len(newSnap.Rows))
	for k := range newSnap.Rows {
		if _, ok := oldSnap.Rows[k]; ok {
			shared = append(shared, k)
		} else {
			result.NewKeys = append(result.NewKeys, k)
		}
	}
	for k := range oldSnap.Rows {
		if _, ok := newSnap.Rows[k]; !ok {
			result.RemovedKeys = append(result.RemovedKeys, k)
		}
	}
	sort.Strings(result.NewKeys)
	sort.Strings(result.RemovedKeys)
	sort.Strings(shared)

	for _, k := range shared {
		oldRow, newRow := oldSnap.Rows[k], newSnap.Rows[k]
		var fields map[string]FieldChange
		for _, c := range result.CompareFields {
			a := strings.TrimSpace(oldRow[c])
			b := strings.TrimSpace(newRow[c])
			if a != b {
				if fields == nil {
					fields = make(map[string]FieldChange)
				}
				fields[c] = FieldChange{Old: a, New: b}
			}
		}
		if fields != nil {
			result.Changed = append(result.Changed, ChangedRow{Key: k, Fields: fields})
		}
	}

	return result
}

// resolveCompareFields returns the field list used for change detection. An
// explicit list keeps its order, filtered to columns present in both files.
// The default is the old snapshot's header order minus the key column,
// filtered the same way.
func resolveCompareFields(oldSnap, newSnap *snapshot.Snapshot, explicit []string) []string {
	candidates := explicit
	if candidates == nil {
		candidates = oldSnap.Columns
	}
	fields := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if explicit == nil && c == oldSnap.KeyColumn {
			continue
		}
		if oldSnap.HasColumn(c) && newSnap.HasColumn(c) {
			fields = append(fields, c)
		}
	}
	return fields
}
