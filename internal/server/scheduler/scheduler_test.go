package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_InvalidSpec(t *testing.T) {
	s := New(logging.Nop{})
	defer s.Stop(context.Background())

	for _, spec := range []string{"", "every hour", "@every", "61 * * * *", "* * * *"} {
		assert.Error(t, s.Schedule("sweep", spec, func(context.Context) {}), spec)
	}
	assert.Equal(t, 0, s.Len())
}

func TestSchedule_ReplacesByName(t *testing.T) {
	s := New(logging.Nop{})
	defer s.Stop(context.Background())

	require.NoError(t, s.Schedule("sweep", "@every 1h", func(context.Context) {}))
	require.NoError(t, s.Schedule("sweep", "0 3 * * *", func(context.Context) {}))
	require.NoError(t, s.Schedule("other", "@daily", func(context.Context) {}))

	assert.Equal(t, 2, s.Len())
	assert.Len(t, s.cron.Entries(), 2)
}

func TestSchedule_RunsAndStops(t *testing.T) {
	s := New(logging.Nop{})

	var runs atomic.Int32
	cancelled := make(chan struct{})
	require.NoError(t, s.Schedule("tick", "@every 1s", func(ctx context.Context) {
		if ctx.Err() != nil || runs.Add(1) > 1 {
			return
		}
		<-ctx.Done()
		close(cancelled)
	}))
	s.Start()
	s.Start()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case <-cancelled:
	default:
		t.Fatal("running job was not cancelled")
	}
	assert.EqualValues(t, 1, runs.Load(), "overlapping tick must be skipped")
}

func TestStop_NotStarted(t *testing.T) {
	s := New(logging.Nop{})
	assert.NoError(t, s.Stop(context.Background()))
}
