package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlob(t *testing.T, s Store, key, body string) {
	t.Helper()
	w, err := s.Create(context.Background(), key)
	require.NoError(t, err)
	_, err = io.WriteString(w, body)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s := NewFileStore(base)

	writeBlob(t, s, "20250101/alice/a.bin", "hello")

	_, err := os.Stat(filepath.Join(base, "20250101", "alice", "a.bin"))
	require.NoError(t, err)

	r, err := s.Open(ctx, "20250101/alice/a.bin")
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(b))
}

func TestFileStore_CreateRefusesOverwrite(t *testing.T) {
	s := NewFileStore(t.TempDir())
	writeBlob(t, s, "k/a", "1")

	_, err := s.Create(context.Background(), "k/a")
	assert.ErrorIs(t, err, common.ErrStorageWrite)
}

func TestFileStore_AbortRemovesPartial(t *testing.T) {
	base := t.TempDir()
	s := NewFileStore(base)

	w, err := s.Create(context.Background(), "k/partial")
	require.NoError(t, err)
	_, _ = w.Write([]byte("half"))
	w.Abort(errors.New("stop"))

	_, err = os.Stat(s.Path("k/partial"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_OpenMissing(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, err := s.Open(context.Background(), "nope/x")
	assert.ErrorIs(t, err, common.ErrBlobMissing)
}

func TestFileStore_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	writeBlob(t, s, "k/a", "1")

	require.NoError(t, s.Remove(ctx, "k/a"))
	require.NoError(t, s.Remove(ctx, "k/a"))
	assert.Error(t, s.Remove(ctx, "../escape"))
}

func TestFileStore_Walk(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	writeBlob(t, s, "20250101/bob/b", "2")
	writeBlob(t, s, "20250101/alice/a", "1")

	var keys []string
	err := s.Walk(ctx, func(key string, mod time.Time) error {
		keys = append(keys, key)
		assert.False(t, mod.IsZero())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"20250101/alice/a", "20250101/bob/b"}, keys)

	stop := errors.New("stop")
	assert.ErrorIs(t, s.Walk(ctx, func(string, time.Time) error { return stop }), stop)
}

func TestFileStore_WalkMissingBase(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent"))
	called := false
	require.NoError(t, s.Walk(context.Background(), func(string, time.Time) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}
