package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

const maxRequestBytes = 1 << 20 // 1 MB

func parseRequest[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	dec := json.NewDecoder(r.Body)

	var v T
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	return &v, nil
}
