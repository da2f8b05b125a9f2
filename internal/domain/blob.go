package domain

import "context"

// BlobStore abstracts raw file byte storage keyed by slash-separated path.
// Delete returns ErrNotFound when nothing is stored at path.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
