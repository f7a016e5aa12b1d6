// Package blobstore stores ciphertext blobs under slash-separated keys of the
// form YYYYMMDD/<owner>/<file>, either on the local filesystem or in an
// S3-compatible bucket.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Writer is an in-progress blob. Close publishes it; Abort discards it.
type Writer interface {
	io.WriteCloser
	Abort(err error)
}

// WalkFunc is called once per stored blob.
type WalkFunc func(key string, modTime time.Time) error

type Store interface {
	Create(ctx context.Context, key string) (Writer, error)
	// Open fails with common.ErrBlobMissing when key does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove succeeds when key is already gone.
	Remove(ctx context.Context, key string) error
	Walk(ctx context.Context, fn WalkFunc) error
}

// ValidateKey rejects keys that are empty, absolute or escape the store root.
func ValidateKey(key string) error {
	if key == "" || path.IsAbs(key) || path.Clean(key) != key ||
		key == "." || key == ".." || strings.HasPrefix(key, "../") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
