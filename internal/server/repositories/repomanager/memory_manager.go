package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sentivault/internal/server/repositories/media"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/sentiment"
)

// InMemoryRepositoryManager keeps metadata in process memory. Transactions
// are serialized but not rolled back; each repository call is atomic on its
// own.
type InMemoryRepositoryManager struct {
	txMu      sync.Mutex
	sentiment *sentiment.InMemoryRepository
	media     *media.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		sentiment: sentiment.NewInMemoryRepository(),
		media:     media.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Sentiment() sentiment.Repository { return m.sentiment }

func (m *InMemoryRepositoryManager) Media() media.Repository { return m.media }

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *InMemoryRepositoryManager) Close() error { return nil }
