package models

import "errors"

var (
	// ErrNoSourceData is returned when a run ends with nothing to write:
	// every configured source failed or yielded zero rows.
	ErrNoSourceData = errors.New("no source produced any data")

	// ErrKeyNotFound is returned when an api source's data_key does not
	// address a value in the response payload.
	ErrKeyNotFound = errors.New("data key not found in response")

	// ErrGCSNotConfigured is returned when the document references GCS but
	// no storage client is available.
	ErrGCSNotConfigured = errors.New("gcs client is not configured")
)
