package repomanager

import (
	"context"

	"github.com/dmitrijs2005/sentivault/internal/server/repositories/media"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/sentiment"
)

// Repositories vends repositories bound to one connection or transaction.
type Repositories interface {
	Sentiment() sentiment.Repository
	Media() media.Repository
}

// RepositoryManager owns the metadata store.
type RepositoryManager interface {
	Repositories
	RunMigrations(ctx context.Context) error
	// WithTx runs fn with repositories bound to a single transaction that is
	// committed when fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
