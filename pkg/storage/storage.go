// Package storage persists assembled uploads in S3-compatible object
// storage and hands back durable public URLs.
package storage

import (
	"context"
)

type ObjectStorage interface {
	// Put stores data under key and returns the durable public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object a previously returned URL points at.
	Delete(ctx context.Context, url string) error
	// Owns reports whether a URL belongs to this backend. Cleanup must
	// never attempt deletion of externally supplied URLs.
	Owns(url string) bool
}

// Reducer is the size-reduction transform applied to oversized buffers
// before upload. Concrete PDF/image compression is an external collaborator;
// callers only see buffer in, buffer out.
type Reducer interface {
	Reduce(ctx context.Context, data []byte, contentType string) ([]byte, error)
}

// NopReducer passes the buffer through unchanged.
type NopReducer struct{}

func (NopReducer) Reduce(_ context.Context, data []byte, _ string) ([]byte, error) {
	return data, nil
}
