// Package table holds the in-memory tabular frame passed between pipeline
// stages: an ordered column list plus positional rows. Column order is
// significant because it becomes the header row of the generated sheet.
package table

import "fmt"

type Table struct {
	columns []string
	colIdx  map[string]int
	rows    [][]any
}

func New(columns []string) *Table {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}

	return &Table{
		columns: columns,
		colIdx:  idx,
		rows:    make([][]any, 0),
	}
}

// FromMaps builds a table from decoded JSON records. Columns are ordered by
// first appearance across the record list so the sheet layout is stable for
// a given payload.
func FromMaps(records []map[string]any, order []string) *Table {
	var columns []string
	seen := make(map[string]struct{})

	appendCol := func(c string) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			columns = append(columns, c)
		}
	}

	for _, c := range order {
		appendCol(c)
	}
	for _, rec := range records {
		for c := range rec {
			appendCol(c)
		}
	}

	t := New(columns)
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = rec[c]
		}
		t.rows = append(t.rows, row)
	}

	return t
}

func (t *Table) Columns() []string { return t.columns }

func (t *Table) NumColumns() int { return len(t.columns) }

func (t *Table) NumRows() int { return len(t.rows) }

func (t *Table) Row(i int) []any { return t.rows[i] }

func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.colIdx[name]
	return i, ok
}

// Append adds a positional row; its length must match the column count.
func (t *Table) Append(row []any) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, row)

	return nil
}

// RenameColumn renames old to renamed in place. Renaming a column that does
// not exist is a no-op, mirroring how the rename transformation treats
// unknown columns.
func (t *Table) RenameColumn(old, renamed string) bool {
	i, ok := t.colIdx[old]
	if !ok {
		return false
	}

	t.columns[i] = renamed
	delete(t.colIdx, old)
	t.colIdx[renamed] = i

	return true
}

// RowMap materializes row i as a column-keyed map, used as the expression
// environment for row filters.
func (t *Table) RowMap(i int) map[string]any {
	m := make(map[string]any, len(t.columns))
	for j, c := range t.columns {
		m[c] = t.rows[i][j]
	}

	return m
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) (bool, error)) error {
	kept := t.rows[:0]
	for i := range t.rows {
		ok, err := keep(i)
		if err != nil {
			return err
		}
		if ok {
			kept = append(kept, t.rows[i])
		}
	}
	t.rows = kept

	return nil
}
