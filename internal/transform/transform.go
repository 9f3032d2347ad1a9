// Package transform applies the configured per-source column transformations
// to a tabular frame: column renames, date coercion and row filtering.
package transform

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"

	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/table"
)

type Transformer struct {
	cfg    models.TransformationsConfig
	filter *vm.Program
}

// New compiles the transformation set for one source. The filter expression
// is compiled once here and reused for every row.
func New(cfg models.TransformationsConfig) (*Transformer, error) {
	var filter *vm.Program

	if cfg.Filter != "" {
		var err error
		filter, err = expr.Compile(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("compile filter expression: %w", err)
		}
	}

	return &Transformer{
		cfg:    cfg,
		filter: filter,
	}, nil
}

// Apply mutates t in place: renames run first so date columns and filter
// expressions address the renamed columns.
func (tr *Transformer) Apply(t *table.Table) error {
	for old, renamed := range tr.cfg.RenameColumns {
		t.RenameColumn(old, renamed)
	}

	for _, col := range tr.cfg.DateColumns {
		if err := coerceDates(t, col); err != nil {
			return err
		}
	}

	if tr.filter != nil {
		err := t.Filter(func(i int) (bool, error) {
			result, err := expr.Run(tr.filter, t.RowMap(i))
			if err != nil {
				return false, fmt.Errorf("evaluate filter on row %d: %w", i, err)
			}

			keep, ok := result.(bool)
			if !ok {
				return false, fmt.Errorf("filter expression must evaluate to a boolean, got %T", result)
			}

			return keep, nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func coerceDates(t *table.Table, col string) error {
	idx, ok := t.ColumnIndex(col)
	if !ok {
		return fmt.Errorf("date column %q not present", col)
	}

	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		if row[idx] == nil {
			continue
		}
		if _, ok := row[idx].(time.Time); ok {
			continue
		}

		parsed, err := cast.ToTimeE(epochCell(row[idx]))
		if err != nil {
			return fmt.Errorf("parse date column %q row %d: %w", col, i, err)
		}
		row[idx] = parsed
	}

	return nil
}

// epochCell bridges JSON numerics into cast: decoded numbers arrive as
// float64, which cast.ToTimeE has no case for, so they are handed over as
// integer epoch seconds.
func epochCell(v any) any {
	switch f := v.(type) {
	case float64:
		return int64(f)
	case float32:
		return int64(f)
	default:
		return v
	}
}

// ValidateFilter checks that a filter expression compiles, without running
// it. Used by the validate endpoint before any data is fetched.
func ValidateFilter(expression string) error {
	if expression == "" {
		return nil
	}

	if _, err := expr.Compile(expression); err != nil {
		return fmt.Errorf("compile filter expression: %w", err)
	}

	return nil
}
