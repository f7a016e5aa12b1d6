package media

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	now := time.Now()

	a1 := &models.MediaAsset{ID: "1", MediaKind: models.KindAudio, UploadedBy: "alice", Filepath: "d/alice/1.mp3", CreatedAt: now}
	a2 := &models.MediaAsset{ID: "2", MediaKind: models.KindVideo, UploadedBy: "bob", Filepath: "d/bob/2.mp4", CreatedAt: now.Add(time.Second)}
	require.NoError(t, repo.Create(ctx, a1))
	require.NoError(t, repo.Create(ctx, a2))

	assert.Error(t, repo.Create(ctx, a1), "duplicate id")
	assert.Error(t, repo.Create(ctx, &models.MediaAsset{ID: "3", Filepath: a1.Filepath}), "duplicate path")

	got, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, a1, got)

	all, err := repo.ListByOwner(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2", all[0].ID)

	mine, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	paths, err := repo.ListPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"d/alice/1.mp3", "d/bob/2.mp4"}, paths)

	require.NoError(t, repo.Delete(ctx, "1"))
	assert.ErrorIs(t, repo.Delete(ctx, "1"), common.ErrorNotFound)
	_, err = repo.GetByID(ctx, "1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
