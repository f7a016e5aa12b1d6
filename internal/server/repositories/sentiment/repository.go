package sentiment

import (
	"context"

	"github.com/dmitrijs2005/sentivault/internal/server/models"
)

// Repository persists normalized sentiment records.
type Repository interface {
	InsertMany(ctx context.Context, records []*models.SentimentRecord) error
	GetByID(ctx context.Context, id string) (*models.SentimentRecord, error)
	Find(ctx context.Context, filter models.SentimentFilter) ([]*models.SentimentRecord, error)
	// Update overwrites the mutable columns of an existing record.
	Update(ctx context.Context, record *models.SentimentRecord) error
	Delete(ctx context.Context, id string) error
	CountBySourceFile(ctx context.Context, sourceFile string) (int, error)
	ListSourceFiles(ctx context.Context) ([]string, error)
}
