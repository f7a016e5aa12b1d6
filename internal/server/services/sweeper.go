package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/blobstore"
	"github.com/dmitrijs2005/sentivault/internal/server/events"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/repomanager"
)

// SweepReport counts what one sweep removed.
type SweepReport struct {
	OrphanBlobs   int `json:"orphan_blobs"`
	StagingFiles  int `json:"staging_files"`
	MissingAssets int `json:"missing_assets"`
}

// Sweeper reconciles the blob store with the metadata store.
//
// Blobs no metadata refers to and media assets whose blob is gone are
// removed once they are older than the grace period, which keeps uploads
// still in flight out of reach. Staging, when set, is a separate local store
// holding plaintext uploads; everything in it older than the grace period is
// removed.
type Sweeper struct {
	repos     repomanager.RepositoryManager
	blobs     blobstore.Store
	staging   blobstore.Store
	grace     time.Duration
	publisher events.Publisher
	log       logging.Logger
	now       func() time.Time
}

func NewSweeper(repos repomanager.RepositoryManager, blobs, staging blobstore.Store, grace time.Duration, publisher events.Publisher, log logging.Logger) *Sweeper {
	return &Sweeper{
		repos:     repos,
		blobs:     blobs,
		staging:   staging,
		grace:     grace,
		publisher: publisher,
		log:       log.With("module", "sweeper"),
		now:       time.Now,
	}
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	cutoff := s.now().Add(-s.grace)

	referenced := make(map[string]bool)
	mediaPaths, err := s.repos.Media().ListPaths(ctx)
	if err != nil {
		return report, err
	}
	for _, p := range mediaPaths {
		referenced[p] = true
	}
	sources, err := s.repos.Sentiment().ListSourceFiles(ctx)
	if err != nil {
		return report, err
	}
	for _, p := range sources {
		referenced[p] = true
	}

	present := make(map[string]bool)
	var orphans []string
	err = s.blobs.Walk(ctx, func(key string, mod time.Time) error {
		present[key] = true
		if !referenced[key] && mod.Before(cutoff) {
			orphans = append(orphans, key)
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	for _, key := range orphans {
		if err := s.blobs.Remove(ctx, key); err != nil {
			s.log.Warn(ctx, "could not remove orphan blob", "key", key, "error", err)
			continue
		}
		report.OrphanBlobs++
		s.publish(ctx, map[string]any{"key": key, "reason": "unreferenced"})
	}

	if s.staging != nil {
		n, err := s.sweepStaging(ctx, cutoff)
		report.StagingFiles = n
		if err != nil {
			return report, err
		}
	}

	assets, err := s.repos.Media().ListByOwner(ctx, "")
	if err != nil {
		return report, err
	}
	for _, a := range assets {
		if present[a.Filepath] || !a.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.repos.Media().Delete(ctx, a.ID); err != nil {
			s.log.Warn(ctx, "could not remove asset without blob", "id", a.ID, "error", err)
			continue
		}
		s.log.Warn(ctx, "removed asset without blob", "id", a.ID, "key", a.Filepath)
		report.MissingAssets++
		s.publish(ctx, map[string]any{"id": a.ID, "owner": a.UploadedBy, "key": a.Filepath, "reason": "blob missing"})
	}

	s.log.Info(ctx, "sweep finished",
		"orphan_blobs", report.OrphanBlobs,
		"staging_files", report.StagingFiles,
		"missing_assets", report.MissingAssets)
	return report, nil
}

func (s *Sweeper) sweepStaging(ctx context.Context, cutoff time.Time) (int, error) {
	var stale []string
	err := s.staging.Walk(ctx, func(key string, mod time.Time) error {
		if mod.Before(cutoff) {
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	n := 0
	for _, key := range stale {
		if err := s.staging.Remove(ctx, key); err != nil {
			s.log.Warn(ctx, "could not remove stale plaintext", "key", key, "error", err)
			continue
		}
		n++
	}
	return n, nil
}

func (s *Sweeper) publish(ctx context.Context, data map[string]any) {
	if err := publishBounded(ctx, s.publisher, events.DefaultPublishTimeout, events.NewEvent(events.BlobSwept, "sweeper", data)); err != nil {
		s.log.Warn(ctx, "event not published", "type", string(events.BlobSwept), "error", err)
	}
}
