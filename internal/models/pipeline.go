package models

import (
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-json"
)

const (
	APISourceType        = "api"
	GCSSourceType        = "gcs"
	ClickHouseSourceType = "clickhouse"
)

// TransformationsConfig holds the per-source column transformations, applied
// in fixed order: rename, date coercion, filter.
type TransformationsConfig struct {
	RenameColumns map[string]string `json:"rename_columns,omitempty"`
	DateColumns   []string          `json:"date_columns,omitempty"`
	Filter        string            `json:"filter,omitempty"`
}

// SourceConfig is a single source descriptor. Type selects which of the
// location field groups is meaningful; Name doubles as the sheet name in the
// generated workbook.
type SourceConfig struct {
	Type string `json:"type"`
	Name string `json:"name"`

	// api sources
	URL     string            `json:"url,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	DataKey string            `json:"data_key,omitempty"`

	// gcs sources
	Bucket string `json:"bucket,omitempty"`
	File   string `json:"file,omitempty"`

	// clickhouse sources
	Addr     string `json:"addr,omitempty"`
	Database string `json:"database,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Table    string `json:"table,omitempty"`

	Transformations TransformationsConfig `json:"transformations,omitempty"`
}

type GCSUploadConfig struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path,omitempty"`
}

type OutputConfig struct {
	BaseName  string           `json:"base_name"`
	GCSUpload *GCSUploadConfig `json:"gcs_upload,omitempty"`
}

// PipelineConfig is the full declarative pipeline document.
type PipelineConfig struct {
	Sources []SourceConfig `json:"sources"`
	Output  OutputConfig   `json:"output"`
}

// ParsePipelineConfig decodes and validates a pipeline document.
func ParsePipelineConfig(data []byte) (zero PipelineConfig, _ error) {
	var cfg PipelineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return zero, PipelineConfigError{Msg: fmt.Sprintf("unable to parse document: %s", err)}
	}

	if err := cfg.Validate(); err != nil {
		return zero, err
	}

	return cfg, nil
}

// Validate checks the structural properties of the document: every source has
// a known type, a unique non-empty name and its per-type required fields; the
// output descriptor has a base name and, when upload is requested, a bucket.
func (pc PipelineConfig) Validate() error {
	if len(pc.Sources) == 0 {
		return PipelineConfigError{Msg: "must have at least one source"}
	}

	seenNames := make(map[string]struct{}, len(pc.Sources))

	for i, src := range pc.Sources {
		if len(strings.TrimSpace(src.Name)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %d: name cannot be empty", i)}
		}
		if _, ok := seenNames[src.Name]; ok {
			return PipelineConfigError{Msg: fmt.Sprintf("duplicate source name %q", src.Name)}
		}
		seenNames[src.Name] = struct{}{}

		if err := src.validate(); err != nil {
			return err
		}
	}

	if len(strings.TrimSpace(pc.Output.BaseName)) == 0 {
		return PipelineConfigError{Msg: "output base_name cannot be empty"}
	}

	if up := pc.Output.GCSUpload; up != nil {
		if len(strings.TrimSpace(up.Bucket)) == 0 {
			return PipelineConfigError{Msg: "gcs_upload bucket cannot be empty"}
		}
	}

	return nil
}

func (src SourceConfig) validate() error {
	switch src.Type {
	case APISourceType:
		if len(strings.TrimSpace(src.URL)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: url cannot be empty", src.Name)}
		}
	case GCSSourceType:
		if len(strings.TrimSpace(src.Bucket)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: bucket cannot be empty", src.Name)}
		}
		if len(strings.TrimSpace(src.File)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: file cannot be empty", src.Name)}
		}
		switch strings.ToLower(path.Ext(src.File)) {
		case ".csv", ".json":
		default:
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: unsupported file format %q; allowed: .csv, .json", src.Name, path.Ext(src.File))}
		}
	case ClickHouseSourceType:
		if len(strings.TrimSpace(src.Addr)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: addr cannot be empty", src.Name)}
		}
		if len(strings.TrimSpace(src.Table)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: table cannot be empty", src.Name)}
		}
	default:
		return PipelineConfigError{Msg: fmt.Sprintf("source %q: unsupported type %q; allowed: api, gcs, clickhouse", src.Name, src.Type)}
	}

	for old, renamed := range src.Transformations.RenameColumns {
		if len(strings.TrimSpace(old)) == 0 || len(strings.TrimSpace(renamed)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: rename_columns entries cannot be empty", src.Name)}
		}
	}

	for _, col := range src.Transformations.DateColumns {
		if len(strings.TrimSpace(col)) == 0 {
			return PipelineConfigError{Msg: fmt.Sprintf("source %q: date_columns entries cannot be empty", src.Name)}
		}
	}

	return nil
}

type PipelineConfigError struct {
	Msg string
}

func (e PipelineConfigError) Error() string {
	return "invalid pipeline config: " + e.Msg
}
