package storage

import (
	"context"
	"io"
)

// Store is an audio store. References returned by Put are what lectures
// persist; every other method accepts them back.
type Store interface {
	Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
	// Localize returns a local path for ref; cleanup releases any temporary copy.
	Localize(ctx context.Context, ref string) (path string, cleanup func(), err error)
}

var (
	_ Store = (*Local)(nil)
	_ Store = (*S3)(nil)
)
