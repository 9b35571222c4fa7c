// Package storage streams document files to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrEmptyObject is returned when an upload carries no content.
var ErrEmptyObject = errors.New("storage: empty object")

// PutObjectOptions describe an upload. Size is -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object. URL is saved as the document's file URL.
type ObjectInfo struct {
	Key          string
	URL          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store of the upload flow.
type Storage interface {
	// Put uploads an object under key and returns its durable URL.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object. The upload flow calls it when the document row could not be saved.
	Delete(ctx context.Context, key string) error
}
