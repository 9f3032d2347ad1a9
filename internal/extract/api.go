package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"

	"github.com/sheetflow/excel-etl/internal/models"
	"github.com/sheetflow/excel-etl/internal/table"
)

const (
	fetchAttempts   = 3
	fetchRetryDelay = 500 * time.Millisecond
)

// APIExtractor fetches rows from a REST endpoint. Transport errors and 5xx
// responses are retried; other non-2xx responses fail immediately.
type APIExtractor struct {
	cfg    models.SourceConfig
	client *http.Client
}

func (e *APIExtractor) Name() string { return e.cfg.Name }

func (e *APIExtractor) Extract(ctx context.Context) (*table.Table, error) {
	reqURL, err := e.buildURL()
	if err != nil {
		return nil, err
	}

	var body []byte
	err = retry.Do(
		func() error {
			body, err = e.fetch(ctx, reqURL)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(fetchRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", reqURL, err)
	}

	rows := body
	if e.cfg.DataKey != "" {
		res := gjson.GetBytes(body, e.cfg.DataKey)
		if !res.Exists() {
			return nil, fmt.Errorf("%w: %q", models.ErrKeyNotFound, e.cfg.DataKey)
		}
		rows = []byte(res.Raw)
	}

	return tableFromJSONArray(rows)
}

func (e *APIExtractor) buildURL() (string, error) {
	u, err := url.Parse(e.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	q := u.Query()
	for k, v := range e.cfg.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (e *APIExtractor) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("server error: %s", resp.Status)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, retry.Unrecoverable(fmt.Errorf("unexpected status: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}
