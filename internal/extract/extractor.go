// Package extract pulls tabular data out of the configured sources. Each
// source type has its own extractor behind the common Extractor interface.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/table"
)

type Extractor interface {
	Name() string
	Extract(ctx context.Context) (*table.Table, error)
}

// ObjectStore is the object-storage capability extractors need: opening a
// reader on a bucket object. Satisfied by gcs.Client.
type ObjectStore interface {
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// Options carries the shared clients extractors are built from.
type Options struct {
	HTTPClient *http.Client
	Store      ObjectStore
}

// New builds the extractor for a validated source descriptor.
func New(cfg models.SourceConfig, opts Options) (Extractor, error) {
	switch cfg.Type {
	case models.APISourceType:
		httpClient := opts.HTTPClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		return &APIExtractor{cfg: cfg, client: httpClient}, nil
	case models.GCSSourceType:
		if opts.Store == nil {
			return nil, models.ErrGCSNotConfigured
		}
		return &GCSExtractor{cfg: cfg, store: opts.Store}, nil
	case models.ClickHouseSourceType:
		return &ClickHouseExtractor{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", cfg.Type)
	}
}
