package models

import "time"

// SourceResult records the outcome of a single source in a run. A skipped
// source carries the extraction error that caused it to be dropped.
type SourceResult struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RunReport summarizes a completed pipeline run.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Sources    []SourceResult `json:"sources"`
	OutputFile string         `json:"output_file"`
	UploadedTo string         `json:"uploaded_to,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}
