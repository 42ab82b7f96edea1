package storage

import (
	"context"
	"io"
)

// Reader provides read access to stored content
type Reader interface {
	// GetReader returns a reader for the content at the given key
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)

	// GetMetadata returns metadata for content at the given key.
	// Missing content is reported as ErrNotFound.
	GetMetadata(ctx context.Context, key string) (*Metadata, error)
}

// Writer provides write access to stored content
type Writer interface {
	// Put stores everything read from r at the given key, replacing any
	// previous content
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
}

// Metadata contains storage object metadata
type Metadata struct {
	Size        int64
	ContentType string
}
