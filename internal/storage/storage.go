// Package storage contains the S3-compatible object storage abstraction backing
// the content store. Implementations must avoid local disk and rely on
// streaming I/O only. There is intentionally no Delete: stored content is
// immutable and retention is out of scope.
package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and
// the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object info without fetching content. Missing objects
	// return an error satisfying IsNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Health verifies the backing bucket exists and is reachable.
	Health(ctx context.Context) error
}
