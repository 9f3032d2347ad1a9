package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sheetflow/excel-etl/internal/models"
)

type fakeStore struct {
	objects map[string]string

	uploadedBucket string
	uploadedObject string
	uploadedFrom   string
	uploadErr      error
}

func (s *fakeStore) NewReader(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	data, ok := s.objects[bucket+"/"+object]
	if !ok {
		return nil, fmt.Errorf("object not found: gs://%s/%s", bucket, object)
	}

	return io.NopCloser(strings.NewReader(data)), nil
}

func (s *fakeStore) Upload(_ context.Context, localPath, bucket, object string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}

	s.uploadedFrom = localPath
	s.uploadedBucket = bucket
	s.uploadedObject = object

	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, store Store) *PipelineService {
	t.Helper()

	ps := NewPipelineService(t.TempDir(), store, http.DefaultClient, discardLogger())
	ps.now = func() time.Time {
		return time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	}

	return ps
}

func salesAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"id": 1, "ts": "2024-03-01", "amount": 150},
			{"id": 2, "ts": "2024-03-02", "amount": 50}
		]}`))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestRunPipeline(t *testing.T) {
	srv := salesAPIServer(t)
	store := &fakeStore{objects: map[string]string{
		"acme-raw/inventory.csv": "sku,qty\nA-1,10\n",
	}}

	ps := newTestService(t, store)

	cfg := models.PipelineConfig{
		Sources: []models.SourceConfig{
			{
				Type:    models.APISourceType,
				Name:    "sales",
				URL:     srv.URL,
				DataKey: "data",
				Transformations: models.TransformationsConfig{
					RenameColumns: map[string]string{"ts": "timestamp"},
					DateColumns:   []string{"timestamp"},
					Filter:        "amount > 100",
				},
			},
			{
				Type:   models.GCSSourceType,
				Name:   "inventory",
				Bucket: "acme-raw",
				File:   "inventory.csv",
			},
		},
		Output: models.OutputConfig{
			BaseName: "weekly_report",
			GCSUpload: &models.GCSUploadConfig{
				Bucket: "acme-reports",
				Path:   "weekly",
			},
		},
	}

	report, err := ps.RunPipeline(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, filepath.Base(report.OutputFile), "weekly_report_20240305_103000.xlsx")

	_, err = os.Stat(report.OutputFile)
	require.NoError(t, err)

	require.Len(t, report.Sources, 2)
	assert.Equal(t, 1, report.Sources[0].Rows) // filter dropped one row
	assert.Equal(t, 1, report.Sources[1].Rows)
	assert.False(t, report.Sources[0].Skipped)

	assert.Equal(t, "acme-reports", store.uploadedBucket)
	assert.Equal(t, "weekly/weekly_report_20240305_103000.xlsx", store.uploadedObject)
	assert.Equal(t, report.OutputFile, store.uploadedFrom)
	assert.Equal(t, "gs://acme-reports/weekly/weekly_report_20240305_103000.xlsx", report.UploadedTo)

	f, err := excelize.OpenFile(report.OutputFile)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"sales", "inventory"}, f.GetSheetList())

	header, err := f.GetCellValue("sales", "B1")
	require.NoError(t, err)
	assert.Equal(t, "timestamp", header)
}

func TestRunPipelineSkipsFailingSource(t *testing.T) {
	srv := salesAPIServer(t)
	store := &fakeStore{objects: map[string]string{}} // inventory object missing

	ps := newTestService(t, store)

	cfg := models.PipelineConfig{
		Sources: []models.SourceConfig{
			{Type: models.APISourceType, Name: "sales", URL: srv.URL, DataKey: "data"},
			{Type: models.GCSSourceType, Name: "inventory", Bucket: "acme-raw", File: "inventory.csv"},
		},
		Output: models.OutputConfig{BaseName: "weekly_report"},
	}

	report, err := ps.RunPipeline(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Sources, 2)
	assert.False(t, report.Sources[0].Skipped)
	assert.True(t, report.Sources[1].Skipped)
	assert.NotEmpty(t, report.Sources[1].Error)
	assert.Empty(t, report.UploadedTo)

	f, err := excelize.OpenFile(report.OutputFile)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"sales"}, f.GetSheetList())
}

func TestRunPipelineAllSourcesFailed(t *testing.T) {
	store := &fakeStore{objects: map[string]string{}}

	ps := newTestService(t, store)

	cfg := models.PipelineConfig{
		Sources: []models.SourceConfig{
			{Type: models.GCSSourceType, Name: "inventory", Bucket: "acme-raw", File: "inventory.csv"},
		},
		Output: models.OutputConfig{BaseName: "weekly_report"},
	}

	_, err := ps.RunPipeline(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoSourceData)
}

func TestRunPipelineInvalidConfig(t *testing.T) {
	ps := newTestService(t, nil)

	_, err := ps.RunPipeline(context.Background(), models.PipelineConfig{})
	require.Error(t, err)

	var cfgErr models.PipelineConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRunPipelineUploadFailure(t *testing.T) {
	srv := salesAPIServer(t)
	store := &fakeStore{uploadErr: fmt.Errorf("permission denied")}

	ps := newTestService(t, store)

	cfg := models.PipelineConfig{
		Sources: []models.SourceConfig{
			{Type: models.APISourceType, Name: "sales", URL: srv.URL, DataKey: "data"},
		},
		Output: models.OutputConfig{
			BaseName:  "weekly_report",
			GCSUpload: &models.GCSUploadConfig{Bucket: "acme-reports"},
		},
	}

	_, err := ps.RunPipeline(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "upload workbook")
}

func TestValidatePipeline(t *testing.T) {
	ps := newTestService(t, nil)

	cfg := models.PipelineConfig{
		Sources: []models.SourceConfig{
			{
				Type: models.APISourceType,
				Name: "sales",
				URL:  "https://api.example.com/v1/sales",
				Transformations: models.TransformationsConfig{
					Filter: "amount >",
				},
			},
		},
		Output: models.OutputConfig{BaseName: "weekly_report"},
	}

	err := ps.ValidatePipeline(cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, `source "sales"`)

	cfg.Sources[0].Transformations.Filter = "amount > 100"
	require.NoError(t, ps.ValidatePipeline(cfg))
}
