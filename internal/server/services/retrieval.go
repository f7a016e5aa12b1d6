package services

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/cryptox"
	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/blobstore"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Stream is decrypted plaintext of one stored file. The IV has already been
// consumed, so the first byte read is the first plaintext byte.
type Stream struct {
	File        models.StoredFile
	Name        string
	ContentType string

	plain io.Reader
	blob  io.Closer
}

func (s *Stream) Read(p []byte) (int, error) { return s.plain.Read(p) }

func (s *Stream) Close() error { return s.blob.Close() }

// RetrievalService streams decrypted media back to callers.
type RetrievalService struct {
	repos repomanager.RepositoryManager
	blobs blobstore.Store
	codec *cryptox.Codec
	log   logging.Logger
}

func NewRetrievalService(repos repomanager.RepositoryManager, blobs blobstore.Store, codec *cryptox.Codec, log logging.Logger) *RetrievalService {
	return &RetrievalService{repos: repos, blobs: blobs, codec: codec, log: log.With("module", "retrieval")}
}

// Open resolves a media asset by id and returns its decrypted stream.
//
// Errors: common.ErrorNotFound when no asset has id, common.ErrBlobMissing
// when the asset exists but its ciphertext does not, and
// common.ErrMalformedCiphertext when the blob is shorter than an IV.
func (s *RetrievalService) Open(ctx context.Context, id string) (*Stream, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	asset, err := s.repos.Media().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.OpenFile(ctx, asset)
}

// OpenSource streams the original upload a sentiment record was parsed from.
func (s *RetrievalService) OpenSource(ctx context.Context, recordID string) (*Stream, error) {
	if !validID(recordID) {
		return nil, common.ErrorNotFound
	}
	rec, err := s.repos.Sentiment().GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return s.OpenFile(ctx, rec)
}

// OpenFile decrypts the ciphertext behind any stored file.
func (s *RetrievalService) OpenFile(ctx context.Context, f models.StoredFile) (*Stream, error) {
	blob, err := s.blobs.Open(ctx, f.CiphertextPath())
	if err != nil {
		if errors.Is(err, common.ErrBlobMissing) {
			s.log.Error(ctx, "metadata without ciphertext", "id", f.FileID(), "key", f.CiphertextPath())
		}
		return nil, err
	}

	plain, err := s.codec.NewDecryptReader(blob)
	if err != nil {
		_ = blob.Close()
		s.log.Error(ctx, "unreadable ciphertext", "id", f.FileID(), "key", f.CiphertextPath(), "error", err)
		return nil, err
	}

	return &Stream{
		File:        f,
		Name:        f.Name(),
		ContentType: ContentType(f.Kind(), f.Name()),
		plain:       plain,
		blob:        blob,
	}, nil
}

// validID filters ids that cannot exist before they reach the store.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
