package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/sentivault/internal/common"
)

// FileStore keeps blobs as files below a base directory.
type FileStore struct {
	base string
}

func NewFileStore(base string) *FileStore {
	return &FileStore{base: base}
}

// Path maps key to its location on disk.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(key))
}

func (s *FileStore) Create(ctx context.Context, key string) (Writer, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	p := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o770); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	return &fileWriter{f: f}, nil
}

type fileWriter struct {
	f *os.File
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *fileWriter) Close() error {
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	return nil
}

func (w *fileWriter) Abort(error) {
	_ = w.f.Close()
	_ = os.Remove(w.f.Name())
}

func (s *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrBlobMissing
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}
	return f, nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Walk visits regular files in lexical order. A missing base directory
// holds no blobs.
func (s *FileStore) Walk(ctx context.Context, fn WalkFunc) error {
	if _, err := os.Stat(s.base); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(s.base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.base, p)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), info.ModTime())
	})
}
