package services

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/cryptox"
	"github.com/dmitrijs2005/sentivault/internal/filex"
	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/blobstore"
	"github.com/dmitrijs2005/sentivault/internal/server/events"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// stalledPublisher blocks every Publish until its context ends, then fails.
type stalledPublisher struct{}

func (stalledPublisher) Publish(ctx context.Context, e *events.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledPublisher) Close() error { return nil }

type brokenPublisher struct{}

func (brokenPublisher) Publish(context.Context, *events.Event) error {
	return errors.New("no brokers available")
}

func (brokenPublisher) Close() error { return nil }

// failingTx makes every transaction fail.
type failingTx struct {
	*repomanager.InMemoryRepositoryManager
}

func (f failingTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx repomanager.Repositories) error) error {
	return errors.New("metadata store down")
}

type testEnv struct {
	base      string
	repos     *repomanager.InMemoryRepositoryManager
	blobs     *blobstore.FileStore
	codec     *cryptox.Codec
	alloc     *filex.Allocator
	pub       *recordingPublisher
	ingest    *IngestService
	retrieval *RetrievalService
	records   *RecordService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	var key cryptox.Key
	_, err := rand.Read(key[:])
	require.NoError(t, err)
	codec, err := cryptox.NewCodec(key)
	require.NoError(t, err)

	base := t.TempDir()
	e := &testEnv{
		base:  base,
		repos: repomanager.NewInMemoryRepositoryManager(),
		blobs: blobstore.NewFileStore(base),
		codec: codec,
		alloc: &filex.Allocator{Base: base, Now: func() time.Time { return testNow }},
		pub:   &recordingPublisher{},
	}
	e.ingest = NewIngestService(e.repos, e.blobs, codec, e.alloc, e.pub, logging.Nop{}, 0)
	e.ingest.now = func() time.Time { return testNow }
	e.retrieval = NewRetrievalService(e.repos, e.blobs, codec, logging.Nop{})
	e.records = NewRecordService(e.repos, e.blobs, e.pub, logging.Nop{})
	return e
}

// upload saves content the way the HTTP layer does and returns the handle.
func (e *testEnv) upload(t *testing.T, name, owner string, content []byte) models.UploadedFile {
	t.Helper()
	loc, err := e.alloc.Allocate(owner)
	require.NoError(t, err)
	p := loc.Path(uuid.NewString() + "-" + name)
	require.NoError(t, os.WriteFile(p, content, 0o600))
	return models.UploadedFile{OriginalName: name, Path: p, SizeBytes: int64(len(content)), Owner: owner, Location: loc}
}

// blobKeys lists everything in the store, plaintext included.
func (e *testEnv) blobKeys(t *testing.T) []string {
	t.Helper()
	var keys []string
	require.NoError(t, e.blobs.Walk(context.Background(), func(key string, _ time.Time) error {
		keys = append(keys, key)
		return nil
	}))
	return keys
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
