package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/cryptox"
	"github.com/dmitrijs2005/sentivault/internal/filex"
	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/blobstore"
	"github.com/dmitrijs2005/sentivault/internal/server/events"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/normalize"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sentivault/internal/server/tabular"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// EncryptedSuffix is appended to tabular uploads to name their ciphertext.
const EncryptedSuffix = ".enc"

// IngestService validates, normalizes, encrypts and records uploaded files.
//
// Per file the order is: classify, validate, parse and normalize (tabular
// only), write the ciphertext, record metadata, remove the plaintext. A
// ciphertext whose metadata could not be written is removed again, and the
// plaintext is removed on every terminal outcome. A crash can still leave an
// unreferenced blob or a plaintext behind; Sweeper collects those.
type IngestService struct {
	repos     repomanager.RepositoryManager
	blobs     blobstore.Store
	codec     *cryptox.Codec
	alloc     *filex.Allocator
	publisher events.Publisher
	log       logging.Logger
	maxMedia  int64

	publishTimeout time.Duration
	now            func() time.Time
	newID          func() string
}

func NewIngestService(
	repos repomanager.RepositoryManager,
	blobs blobstore.Store,
	codec *cryptox.Codec,
	alloc *filex.Allocator,
	publisher events.Publisher,
	log logging.Logger,
	maxMediaBytes int64,
) *IngestService {
	if maxMediaBytes <= 0 {
		maxMediaBytes = common.DefaultMaxMediaBytes
	}
	return &IngestService{
		repos:     repos,
		blobs:     blobs,
		codec:     codec,
		alloc:     alloc,
		publisher: publisher,
		log:       log.With("module", "ingest"),
		maxMedia:  maxMediaBytes,

		publishTimeout: events.DefaultPublishTimeout,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Allocate exposes the storage location for owner so transports can save
// plaintext where the ciphertext will go.
func (s *IngestService) Allocate(owner string) (filex.Location, error) {
	return s.alloc.Allocate(owner)
}

// Ingest processes files strictly in order. A failing file never stops the
// rest; every file gets exactly one Outcome.
func (s *IngestService) Ingest(ctx context.Context, files []models.UploadedFile) []models.Outcome {
	outcomes := make([]models.Outcome, 0, len(files))
	for _, f := range files {
		outcomes = append(outcomes, s.ingestOne(ctx, f))
	}
	return outcomes
}

func (s *IngestService) ingestOne(ctx context.Context, f models.UploadedFile) models.Outcome {
	kind := models.ClassifyFile(f.OriginalName)
	out := models.Outcome{OriginalName: f.OriginalName, Type: kind}

	log := s.log.With("file", f.OriginalName, "owner", f.Owner, "kind", string(kind))

	defer s.removePlaintext(ctx, log, f.Path)

	var err error
	if err = s.validate(kind, f); err == nil {
		if kind == models.KindSentiment {
			err = s.storeSentiment(ctx, f, &out)
		} else {
			err = s.storeMedia(ctx, f, kind, &out)
		}
	}

	if err != nil {
		out.Status = models.StatusError
		var rej *common.Rejection
		if errors.As(err, &rej) {
			out.Message = rej.Msg
			log.Info(ctx, "upload rejected", "reason", rej.Msg)
			s.publish(ctx, log, events.FileRejected, map[string]any{
				"owner": f.Owner, "original_name": f.OriginalName, "reason": rej.Msg,
			})
		} else {
			out.Message = common.MsgServerError
			log.Error(ctx, "upload failed", "error", err)
		}
		return out
	}

	out.Status = models.StatusSuccess
	log.Info(ctx, "upload stored", "size", humanize.Bytes(uint64(f.SizeBytes)), "encrypted_file", out.EncryptedFile)
	return out
}

func (s *IngestService) validate(kind models.FileKind, f models.UploadedFile) error {
	if kind == models.KindUnsupported {
		return common.Reject(common.ErrValidation, common.MsgInvalidFileType)
	}
	if f.SizeBytes <= 0 {
		return common.Reject(common.ErrValidation, common.MsgFileEmpty)
	}
	if kind.IsMedia() && f.SizeBytes > s.maxMedia {
		return common.Reject(common.ErrValidation, common.MsgSizeLimitExceeded)
	}
	return nil
}

func (s *IngestService) storeSentiment(ctx context.Context, f models.UploadedFile, out *models.Outcome) error {
	rows, err := tabular.ParseFormat(f.Path, filepath.Ext(f.OriginalName))
	if err != nil {
		if errors.Is(err, common.ErrParse) {
			return common.Reject(common.ErrParse, common.MsgUnparsable)
		}
		return fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}
	if len(rows) == 0 {
		return common.Reject(common.ErrParse, common.MsgNoData)
	}

	loc, err := s.location(f)
	if err != nil {
		return err
	}
	name := filepath.Base(f.Path) + EncryptedSuffix
	key := loc.Key(name)

	owner := filex.SanitizeOwner(f.Owner)
	now := s.now().UTC()
	records := make([]*models.SentimentRecord, 0, len(rows))
	for _, row := range rows {
		rec := normalize.Record(row, owner)
		rec.ID = s.newID()
		rec.SourceFile = key
		rec.OriginalName = f.OriginalName
		rec.SizeBytes = f.SizeBytes
		rec.CreatedAt = now
		records = append(records, rec)
	}

	if err := s.encryptTo(ctx, f.Path, key); err != nil {
		return err
	}

	err = s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
		return tx.Sentiment().InsertMany(ctx, records)
	})
	if err != nil {
		s.discardBlob(ctx, key)
		return fmt.Errorf("%w: insert sentiment records: %v", common.ErrStorageWrite, err)
	}

	out.RecordsSaved = len(records)
	out.EncryptedFile = name
	s.publish(ctx, s.log, events.FileStored, map[string]any{
		"owner": owner, "kind": string(models.KindSentiment),
		"key": key, "original_name": f.OriginalName, "records": len(records),
	})
	return nil
}

func (s *IngestService) storeMedia(ctx context.Context, f models.UploadedFile, kind models.FileKind, out *models.Outcome) error {
	loc, err := s.location(f)
	if err != nil {
		return err
	}

	id := s.newID()
	name := id + filepath.Ext(f.OriginalName)
	key := loc.Key(name)

	if err := s.encryptTo(ctx, f.Path, key); err != nil {
		return err
	}

	asset := &models.MediaAsset{
		ID:           id,
		MediaKind:    kind,
		UploadedBy:   filex.SanitizeOwner(f.Owner),
		Filepath:     key,
		OriginalName: f.OriginalName,
		SizeBytes:    f.SizeBytes,
		ContentType:  ContentType(kind, f.OriginalName),
		CreatedAt:    s.now().UTC(),
	}
	err = s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
		return tx.Media().Create(ctx, asset)
	})
	if err != nil {
		s.discardBlob(ctx, key)
		return fmt.Errorf("%w: insert media asset: %v", common.ErrStorageWrite, err)
	}

	out.EncryptedFile = name
	out.RecordID = id
	s.publish(ctx, s.log, events.FileStored, map[string]any{
		"owner": asset.UploadedBy, "kind": string(kind), "id": id,
		"key": key, "original_name": f.OriginalName,
	})
	return nil
}

// location is the directory the plaintext was saved in, so the ciphertext
// lands beside it even when the day rolls over mid-upload.
func (s *IngestService) location(f models.UploadedFile) (filex.Location, error) {
	if f.Location.Prefix != "" {
		return f.Location, nil
	}
	return s.alloc.Allocate(f.Owner)
}

// encryptTo streams the plaintext at path into a new blob at key. A partial
// blob is discarded on failure.
func (s *IngestService) encryptTo(ctx context.Context, path, key string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}
	defer src.Close()

	w, err := s.blobs.Create(ctx, key)
	if err != nil {
		return err
	}

	n, err := s.codec.Encrypt(w, src)
	if err != nil {
		w.Abort(err)
		return err
	}
	if err := w.Close(); err != nil {
		s.discardBlob(ctx, key)
		return err
	}

	s.log.Debug(ctx, "ciphertext written", "key", key, "size", humanize.Bytes(uint64(n)))
	return nil
}

func (s *IngestService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Remove(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn(ctx, "could not remove staged ciphertext", "key", key, "error", err)
	}
}

func (s *IngestService) removePlaintext(ctx context.Context, log logging.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn(ctx, "could not remove plaintext", "path", path, "error", err)
	}
}

func (s *IngestService) publish(ctx context.Context, log logging.Logger, t events.EventType, data map[string]any) {
	if err := publishBounded(ctx, s.publisher, s.publishTimeout, events.NewEvent(t, "ingest", data)); err != nil {
		log.Warn(ctx, "event not published", "type", string(t), "error", err)
	}
}

// publishBounded detaches the event from the caller's cancellation and caps
// how long the publisher may hold the caller up.
func publishBounded(ctx context.Context, p events.Publisher, timeout time.Duration, e *events.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return p.Publish(ctx, e)
}
