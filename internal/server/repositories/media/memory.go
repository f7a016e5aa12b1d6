package media

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
)

type InMemoryRepository struct {
	mu     sync.RWMutex
	assets map[string]models.MediaAsset
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{assets: make(map[string]models.MediaAsset)}
}

func (r *InMemoryRepository) Create(ctx context.Context, a *models.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[a.ID]; ok {
		return fmt.Errorf("duplicate media asset id %q", a.ID)
	}
	for _, cur := range r.assets {
		if cur.Filepath == a.Filepath {
			return fmt.Errorf("duplicate media filepath %q", a.Filepath)
		}
	}
	r.assets[a.ID] = *a
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *InMemoryRepository) ListByOwner(ctx context.Context, owner string) ([]*models.MediaAsset, error) {
	r.mu.RLock()
	var result []*models.MediaAsset
	for _, a := range r.assets {
		if owner != "" && a.UploadedBy != owner {
			continue
		}
		a := a
		result = append(result, &a)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.assets, id)
	return nil
}

func (r *InMemoryRepository) ListPaths(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.assets))
	for _, a := range r.assets {
		result = append(result, a.Filepath)
	}
	sort.Strings(result)
	return result, nil
}
