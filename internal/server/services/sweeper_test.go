package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/blobstore"
	"github.com/dmitrijs2005/sentivault/internal/server/events"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, base, key string, age time.Duration) string {
	t.Helper()
	p := filepath.Join(base, filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	if age > 0 {
		old := testNow.Add(-age)
		require.NoError(t, os.Chtimes(p, old, old))
	}
	return p
}

func newTestSweeper(e *testEnv, staging blobstore.Store) *Sweeper {
	s := NewSweeper(e.repos, e.blobs, staging, 24*time.Hour, e.pub, logging.Nop{})
	s.now = func() time.Time { return testNow }
	return s
}

func TestSweep_OrphanBlobs(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	out := e.ingest.Ingest(ctx, []models.UploadedFile{e.upload(t, "song.mp3", "alice", randomBytes(t, 64))})
	require.Equal(t, models.StatusSuccess, out[0].Status)
	asset, err := e.repos.Media().GetByID(ctx, out[0].RecordID)
	require.NoError(t, err)
	referenced := e.blobs.Path(asset.Filepath)
	old := testNow.Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(referenced, old, old))

	orphan := writeAged(t, e.base, "20241230/bob/lost.enc", 48*time.Hour)
	fresh := writeAged(t, e.base, "20250102/bob/inflight.mp3", 0)

	report, err := newTestSweeper(e, nil).Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.OrphanBlobs)
	assert.False(t, fileExists(orphan))
	assert.True(t, fileExists(referenced))
	assert.True(t, fileExists(fresh))
	assert.Contains(t, e.pub.types(), events.BlobSwept)
}

func TestSweep_AssetsWithoutBlob(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	stale := &models.MediaAsset{
		ID: uuid.NewString(), MediaKind: models.KindVideo, UploadedBy: "alice",
		Filepath: "20241230/alice/gone.mp4", CreatedAt: testNow.Add(-48 * time.Hour),
	}
	recent := &models.MediaAsset{
		ID: uuid.NewString(), MediaKind: models.KindVideo, UploadedBy: "alice",
		Filepath: "20250102/alice/pending.mp4", CreatedAt: testNow,
	}
	require.NoError(t, e.repos.Media().Create(ctx, stale))
	require.NoError(t, e.repos.Media().Create(ctx, recent))

	report, err := newTestSweeper(e, nil).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MissingAssets)

	_, err = e.repos.Media().GetByID(ctx, stale.ID)
	assert.Error(t, err)
	_, err = e.repos.Media().GetByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestSweep_Staging(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	stagingDir := t.TempDir()

	stale := writeAged(t, stagingDir, "20241230/alice/abc-news.csv", 48*time.Hour)
	live := writeAged(t, stagingDir, "20250102/alice/def-news.csv", 0)

	report, err := newTestSweeper(e, blobstore.NewFileStore(stagingDir)).Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.StagingFiles)
	assert.False(t, fileExists(stale))
	assert.True(t, fileExists(live))
}

func TestSweep_EmptyStore(t *testing.T) {
	e := newTestEnv(t)
	report, err := newTestSweeper(e, nil).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{}, report)
}
