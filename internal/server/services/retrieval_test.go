package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieval_NotFound(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.retrieval.Open(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.retrieval.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.retrieval.OpenSource(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRetrieval_BlobMissingIsNotNotFound(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	id := uuid.NewString()
	require.NoError(t, e.repos.Media().Create(ctx, &models.MediaAsset{
		ID: id, MediaKind: models.KindAudio, UploadedBy: "alice", Filepath: "20250102/alice/" + id + ".mp3",
	}))

	_, err := e.retrieval.Open(ctx, id)
	assert.ErrorIs(t, err, common.ErrBlobMissing)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestRetrieval_TruncatedCiphertext(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	id := uuid.NewString()
	key := "20250102/alice/" + id + ".mp3"
	w, err := e.blobs.Create(ctx, key)
	require.NoError(t, err)
	_, err = w.Write([]byte("short"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, e.repos.Media().Create(ctx, &models.MediaAsset{
		ID: id, MediaKind: models.KindAudio, UploadedBy: "alice", Filepath: key,
	}))

	_, err = e.retrieval.Open(ctx, id)
	assert.ErrorIs(t, err, common.ErrMalformedCiphertext)
}

func TestRetrieval_StreamStartsAfterIV(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	plain := []byte("0123456789abcdef-first-block-is-not-the-iv")
	f := e.upload(t, "voice.m4a", "carol", plain)
	out := e.ingest.Ingest(ctx, []models.UploadedFile{f})
	require.Equal(t, models.StatusSuccess, out[0].Status)

	stream, err := e.retrieval.Open(ctx, out[0].RecordID)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, "audio/mp4", stream.ContentType)
	assert.Equal(t, "voice.m4a", stream.Name)
	assert.Equal(t, models.KindAudio, stream.File.Kind())

	var buf bytes.Buffer
	_, err = io.Copy(&buf, stream)
	require.NoError(t, err)
	assert.Equal(t, plain, buf.Bytes())
}
