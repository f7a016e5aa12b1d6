// Package media stores audio and video asset metadata.
package media

import (
	"context"

	"github.com/dmitrijs2005/sentivault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, asset *models.MediaAsset) error
	GetByID(ctx context.Context, id string) (*models.MediaAsset, error)
	// ListByOwner lists assets newest first; an empty owner lists everything.
	ListByOwner(ctx context.Context, owner string) ([]*models.MediaAsset, error)
	Delete(ctx context.Context, id string) error
	ListPaths(ctx context.Context) ([]string, error)
}
