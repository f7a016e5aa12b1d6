package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/blobstore"
	"github.com/dmitrijs2005/sentivault/internal/server/events"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/repomanager"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// RecordService queries, updates and deletes stored files.
//
// Deletion always removes the ciphertext before the metadata, so a failure in
// between leaves an unreferenced blob rather than metadata pointing nowhere.
type RecordService struct {
	repos     repomanager.RepositoryManager
	blobs     blobstore.Store
	publisher events.Publisher
	log       logging.Logger
}

func NewRecordService(repos repomanager.RepositoryManager, blobs blobstore.Store, publisher events.Publisher, log logging.Logger) *RecordService {
	return &RecordService{repos: repos, blobs: blobs, publisher: publisher, log: log.With("module", "records")}
}

func (s *RecordService) ListSentiment(ctx context.Context, filter models.SentimentFilter) ([]*models.SentimentRecord, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, common.Reject(common.ErrValidation, "limit and offset must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	return s.repos.Sentiment().Find(ctx, filter)
}

func (s *RecordService) GetSentiment(ctx context.Context, id string) (*models.SentimentRecord, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repos.Sentiment().GetByID(ctx, id)
}

// UpdateSentiment applies patch to the record and returns the result. Only
// article fields can change; owner and provenance are fixed at ingestion.
func (s *RecordService) UpdateSentiment(ctx context.Context, id string, patch models.SentimentPatch) (*models.SentimentRecord, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	if patch.Empty() {
		return nil, common.Reject(common.ErrValidation, "nothing to update")
	}

	var updated *models.SentimentRecord
	err := s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
		rec, err := tx.Sentiment().GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(rec)
		if err := tx.Sentiment().Update(ctx, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSentiment removes one record. Records from the same upload share a
// ciphertext, which goes with the last of them.
func (s *RecordService) DeleteSentiment(ctx context.Context, id string) error {
	rec, err := s.GetSentiment(ctx, id)
	if err != nil {
		return err
	}
	return s.deleteSentiment(ctx, rec)
}

func (s *RecordService) deleteSentiment(ctx context.Context, rec *models.SentimentRecord) error {
	refs, err := s.repos.Sentiment().CountBySourceFile(ctx, rec.SourceFile)
	if err != nil {
		return err
	}
	return s.deleteStored(ctx, rec, refs <= 1, func() error {
		return s.repos.Sentiment().Delete(ctx, rec.ID)
	})
}

func (s *RecordService) ListMedia(ctx context.Context, owner string) ([]*models.MediaAsset, error) {
	return s.repos.Media().ListByOwner(ctx, owner)
}

func (s *RecordService) GetMedia(ctx context.Context, id string) (*models.MediaAsset, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repos.Media().GetByID(ctx, id)
}

func (s *RecordService) DeleteMedia(ctx context.Context, id string) error {
	asset, err := s.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	return s.deleteMedia(ctx, asset)
}

func (s *RecordService) deleteMedia(ctx context.Context, asset *models.MediaAsset) error {
	return s.deleteStored(ctx, asset, true, func() error {
		return s.repos.Media().Delete(ctx, asset.ID)
	})
}

// Resolve finds the stored file with id, whatever its kind.
func (s *RecordService) Resolve(ctx context.Context, id string) (models.StoredFile, error) {
	asset, err := s.GetMedia(ctx, id)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	return s.GetSentiment(ctx, id)
}

// Delete removes the stored file with id, whatever its kind.
func (s *RecordService) Delete(ctx context.Context, id string) (models.StoredFile, error) {
	f, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	switch v := f.(type) {
	case *models.MediaAsset:
		err = s.deleteMedia(ctx, v)
	case *models.SentimentRecord:
		err = s.deleteSentiment(ctx, v)
	default:
		err = fmt.Errorf("%w: unknown stored file %T", common.ErrorInternal, f)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *RecordService) deleteStored(ctx context.Context, f models.StoredFile, removeBlob bool, removeMeta func() error) error {
	if removeBlob {
		if err := s.blobs.Remove(ctx, f.CiphertextPath()); err != nil {
			return fmt.Errorf("%w: remove ciphertext: %v", common.ErrStorageWrite, err)
		}
	}
	if err := removeMeta(); err != nil {
		return err
	}

	s.log.Info(ctx, "stored file deleted", "id", f.FileID(), "kind", string(f.Kind()), "blob_removed", removeBlob)
	data := map[string]any{
		"id": f.FileID(), "owner": f.OwnerID(), "kind": string(f.Kind()), "key": f.CiphertextPath(),
	}
	if err := publishBounded(ctx, s.publisher, events.DefaultPublishTimeout, events.NewEvent(events.FileDeleted, "records", data)); err != nil {
		s.log.Warn(ctx, "event not published", "type", string(events.FileDeleted), "error", err)
	}
	return nil
}
