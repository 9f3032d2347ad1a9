// Package gcs wraps the Google Cloud Storage client with the two operations
// the pipeline needs: reading source objects and uploading the generated
// workbook.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Client struct {
	client *storage.Client
}

// NewClient builds a storage client. With an empty credentialsFile the
// client falls back to application default credentials.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// NewReader opens the named bucket object for reading.
func (c *Client) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	reader, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object reader: %w", err)
	}

	return reader, nil
}

// Upload copies a local file to gs://bucket/object. The object is not
// visible until the writer closes cleanly.
func (c *Client) Upload(ctx context.Context, localPath, bucket, object string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	w := c.client.Bucket(bucket).Object(object).NewWriter(ctx)

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("write object data: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	return nil
}
