// Package service orchestrates a pipeline run: extract every source,
// apply its transformations, render the workbook and optionally upload it.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sheetflow/excel-etl/internal/excel"
	"github.com/sheetflow/excel-etl/internal/extract"
	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/table"
	"github.com/sheetflow/excel-etl/internal/transform"
)

const outputTimestampLayout = "20060102_150405"

// Store combines the object-storage capabilities a run may need. gcs.Client
// satisfies it; tests substitute fakes.
type Store interface {
	extract.ObjectStore
	Upload(ctx context.Context, localPath, bucket, object string) error
}

type PipelineService struct {
	log        *slog.Logger
	outputDir  string
	httpClient *http.Client
	store      Store

	now func() time.Time
}

func NewPipelineService(outputDir string, store Store, httpClient *http.Client, log *slog.Logger) *PipelineService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &PipelineService{
		log:        log,
		outputDir:  outputDir,
		httpClient: httpClient,
		store:      store,

		now: time.Now,
	}
}

// ValidatePipeline runs the checks that need no data: document structure and
// filter expression compilation.
func (ps *PipelineService) ValidatePipeline(cfg models.PipelineConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, src := range cfg.Sources {
		if err := transform.ValidateFilter(src.Transformations.Filter); err != nil {
			return models.PipelineConfigError{Msg: fmt.Sprintf("source %q: %s", src.Name, err)}
		}
	}

	return nil
}

// RunPipeline executes a validated document end to end and returns the run
// report. A failing source is logged and skipped; the run fails only when
// nothing is left to write.
func (ps *PipelineService) RunPipeline(ctx context.Context, cfg models.PipelineConfig) (*models.RunReport, error) {
	if err := ps.ValidatePipeline(cfg); err != nil {
		return nil, err
	}

	report := &models.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: ps.now().UTC(),
	}
	log := ps.log.With(slog.String("run_id", report.RunID))

	sheets, results := ps.extractAll(ctx, log, cfg.Sources)
	report.Sources = results

	totalRows := 0
	for _, sh := range sheets {
		totalRows += sh.Table.NumRows()
	}
	if len(sheets) == 0 || totalRows == 0 {
		return nil, models.ErrNoSourceData
	}

	filename := fmt.Sprintf("%s_%s.xlsx", cfg.Output.BaseName, ps.now().UTC().Format(outputTimestampLayout))

	if err := os.MkdirAll(ps.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	outPath := filepath.Join(ps.outputDir, filename)

	if err := excel.WriteWorkbook(outPath, sheets); err != nil {
		return nil, fmt.Errorf("generate workbook: %w", err)
	}
	report.OutputFile = outPath

	log.Info("workbook created",
		slog.String("path", outPath),
		slog.Int("sheets", len(sheets)),
		slog.Int("rows", totalRows),
	)

	if up := cfg.Output.GCSUpload; up != nil {
		uploadedTo, err := ps.upload(ctx, outPath, filename, up)
		if err != nil {
			return nil, err
		}
		report.UploadedTo = uploadedTo

		log.Info("workbook uploaded", slog.String("destination", uploadedTo))
	}

	report.FinishedAt = ps.now().UTC()

	return report, nil
}

func (ps *PipelineService) extractAll(ctx context.Context, log *slog.Logger, sources []models.SourceConfig) ([]excel.Sheet, []models.SourceResult) {
	var (
		sheets  []excel.Sheet
		results []models.SourceResult
	)

	for _, src := range sources {
		result := models.SourceResult{Name: src.Name, Type: src.Type}

		t, err := ps.extractOne(ctx, src)
		if err != nil {
			log.Error("source failed, skipping",
				slog.String("source", src.Name),
				slog.String("type", src.Type),
				slog.Any("error", err),
			)
			result.Skipped = true
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Rows = t.NumRows()
		result.Columns = t.NumColumns()
		results = append(results, result)

		log.Info("source extracted",
			slog.String("source", src.Name),
			slog.String("type", src.Type),
			slog.Int("rows", t.NumRows()),
			slog.Int("columns", t.NumColumns()),
		)

		sheets = append(sheets, excel.Sheet{Name: src.Name, Table: t})
	}

	return sheets, results
}

func (ps *PipelineService) extractOne(ctx context.Context, src models.SourceConfig) (*table.Table, error) {
	ex, err := extract.New(src, extract.Options{
		HTTPClient: ps.httpClient,
		Store:      ps.store,
	})
	if err != nil {
		return nil, err
	}

	t, err := ex.Extract(ctx)
	if err != nil {
		return nil, err
	}

	tr, err := transform.New(src.Transformations)
	if err != nil {
		return nil, err
	}
	if err := tr.Apply(t); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	return t, nil
}

func (ps *PipelineService) upload(ctx context.Context, localPath, filename string, up *models.GCSUploadConfig) (string, error) {
	if ps.store == nil {
		return "", models.ErrGCSNotConfigured
	}

	object := filename
	if up.Path != "" {
		object = path.Join(up.Path, filename)
	}

	if err := ps.store.Upload(ctx, localPath, up.Bucket, object); err != nil {
		return "", fmt.Errorf("upload workbook: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", up.Bucket, object), nil
}
