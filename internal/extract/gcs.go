package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/table"
)

// GCSExtractor reads a bucket object and decodes it by file extension: CSV
// with a header row, or JSON holding an array of flat records.
type GCSExtractor struct {
	cfg   models.SourceConfig
	store ObjectStore
}

func (e *GCSExtractor) Name() string { return e.cfg.Name }

func (e *GCSExtractor) Extract(ctx context.Context) (*table.Table, error) {
	rc, err := e.store.NewReader(ctx, e.cfg.Bucket, e.cfg.File)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", e.cfg.Bucket, e.cfg.File, err)
	}
	defer rc.Close()

	switch strings.ToLower(path.Ext(e.cfg.File)) {
	case ".csv":
		return decodeCSV(rc)
	case ".json":
		return decodeJSON(rc)
	default:
		// Validation rejects other extensions before a run starts.
		return nil, fmt.Errorf("unsupported file format: %s", e.cfg.File)
	}
}

func decodeCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	t := table.New(header)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func decodeJSON(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object data: %w", err)
	}

	return tableFromJSONArray(data)
}
