package sentiment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
)

// InMemoryRepository keeps records in a map. Returned records are copies.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*models.SentimentRecord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*models.SentimentRecord)}
}

func (r *InMemoryRepository) InsertMany(ctx context.Context, records []*models.SentimentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		if _, ok := r.records[rec.ID]; ok {
			return fmt.Errorf("duplicate sentiment record id %q", rec.ID)
		}
	}
	for _, rec := range records {
		r.records[rec.ID] = rec.Clone()
	}
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.SentimentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rec.Clone(), nil
}

func (r *InMemoryRepository) Find(ctx context.Context, filter models.SentimentFilter) ([]*models.SentimentRecord, error) {
	r.mu.RLock()
	var matched []*models.SentimentRecord
	for _, rec := range r.records {
		if filter.UploadedBy != "" && rec.UploadedBy != filter.UploadedBy {
			continue
		}
		if filter.Label != "" && rec.OverallSentimentLabel != filter.Label {
			continue
		}
		if filter.Ticker != "" && !rec.MentionsTicker(filter.Ticker) {
			continue
		}
		matched = append(matched, rec.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, rec *models.SentimentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.records[rec.ID]
	if !ok {
		return common.ErrorNotFound
	}
	next := rec.Clone()
	// identity and provenance are immutable
	next.UploadedBy = cur.UploadedBy
	next.SourceFile = cur.SourceFile
	next.OriginalName = cur.OriginalName
	next.SizeBytes = cur.SizeBytes
	next.CreatedAt = cur.CreatedAt
	r.records[rec.ID] = next
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *InMemoryRepository) CountBySourceFile(ctx context.Context, sourceFile string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.records {
		if rec.SourceFile == sourceFile {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) ListSourceFiles(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var result []string
	for _, rec := range r.records {
		if _, ok := seen[rec.SourceFile]; ok {
			continue
		}
		seen[rec.SourceFile] = struct{}{}
		result = append(result, rec.SourceFile)
	}
	sort.Strings(result)
	return result, nil
}
