// Package table provides the minimal in-memory table model the ingestion
// layer works with: ordered string columns, string cells, and a static
// column-rename step that doubles as the fail-fast schema check.
package table

import (
	"sort"
	"strings"

	"epipulse/internal/errors"
)

// Table is an ordered set of named columns over string rows. Cells are kept
// as raw strings; typed conversion happens downstream in cast.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		t.index[col] = i
	}
}

// Append adds a row, padding or truncating it to the column count so that
// ragged input rows never index out of bounds.
func (t *Table) Append(row []string) {
	if len(row) > len(t.Columns) {
		row = row[:len(t.Columns)]
	}
	for len(row) < len(t.Columns) {
		row = append(row, "")
	}
	t.Rows = append(t.Rows, row)
}

// HasColumn reports whether the table contains the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at the given row for the named column, trimmed.
// Unknown columns yield the empty string.
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Rename produces a new table with columns renamed according to the static
// mapping from source name to destination name. Every source column named
// by the mapping must exist; a missing one is a fatal schema error raised
// before any transformation proceeds. When drop is true, columns outside
// the mapping are discarded, matching the registry ingestion contract.
func Rename(t *Table, mapping map[string]string, drop bool) (*Table, error) {
	for src := range mapping {
		if !t.HasColumn(src) {
			return nil, errors.NewSchemaError("expected input column is absent", nil).
				WithContext("column", src)
		}
	}

	// Deterministic destination order: mapped columns sorted by destination
	// name, then unmapped survivors in their original order.
	srcs := make([]string, 0, len(mapping))
	for src := range mapping {
		srcs = append(srcs, src)
	}
	sort.Slice(srcs, func(i, j int) bool { return mapping[srcs[i]] < mapping[srcs[j]] })

	var srcOrder []string
	var columns []string
	for _, src := range srcs {
		srcOrder = append(srcOrder, src)
		columns = append(columns, mapping[src])
	}
	if !drop {
		for _, col := range t.Columns {
			if _, mapped := mapping[col]; !mapped {
				srcOrder = append(srcOrder, col)
				columns = append(columns, col)
			}
		}
	}

	out := New(columns...)
	for i := range t.Rows {
		row := make([]string, 0, len(srcOrder))
		for _, src := range srcOrder {
			row = append(row, t.Value(i, src))
		}
		out.Append(row)
	}
	return out, nil
}
