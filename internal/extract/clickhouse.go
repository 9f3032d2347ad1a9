package extract

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/table"
)

const pingTimeout = 5 * time.Second

// ClickHouseExtractor reads the whole configured table. Column names and
// cell types come from the driver's column metadata, so the frame mirrors
// the table schema.
type ClickHouseExtractor struct {
	cfg models.SourceConfig
}

func (e *ClickHouseExtractor) Name() string { return e.cfg.Name }

func (e *ClickHouseExtractor) Extract(ctx context.Context) (*table.Table, error) {
	//nolint: exhaustruct // optional connection config
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{e.cfg.Addr},
		Auth: clickhouse.Auth{
			Database: e.cfg.Database,
			Username: e.cfg.Username,
			Password: e.cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := conn.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	query := "SELECT * FROM " + quoteIdentifier(e.cfg.Table)

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", e.cfg.Table, err)
	}
	defer rows.Close()

	columnTypes := rows.ColumnTypes()

	t := table.New(rows.Columns())
	for rows.Next() {
		scanned := make([]any, len(columnTypes))
		for i, ct := range columnTypes {
			scanned[i] = reflect.New(ct.ScanType()).Interface()
		}

		if err := rows.Scan(scanned...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]any, len(scanned))
		for i, v := range scanned {
			row[i] = reflect.ValueOf(v).Elem().Interface()
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return t, nil
}

// quoteIdentifier wraps a ClickHouse identifier in backticks, escaping any
// existing backticks within the name. Dotted names quote each part so
// "db.table" stays addressable.
func quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}

	return strings.Join(parts, ".")
}
