package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Defi-Moses/tik-tok-metrics/internal/service"
)

type fakeIngest struct {
	calls int
	err   error
}

func (f *fakeIngest) Run(ctx context.Context) (*service.IngestSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.IngestSummary{Processed: 1}, nil
}

type fakeLock struct {
	acquired bool
	err      error
	released int
}

func (f *fakeLock) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return f.acquired, f.err
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released++
	return nil
}

func TestIngestScheduler_RunOnce(t *testing.T) {
	t.Run("runs when the lock is free", func(t *testing.T) {
		ingest := &fakeIngest{}
		lock := &fakeLock{acquired: true}
		s := NewIngestScheduler(ingest, lock, "0 3 * * *")

		s.runOnce()

		assert.Equal(t, 1, ingest.calls)
		assert.Equal(t, 1, lock.released)
	})

	t.Run("skips when another run holds the lock", func(t *testing.T) {
		ingest := &fakeIngest{}
		lock := &fakeLock{acquired: false}
		s := NewIngestScheduler(ingest, lock, "0 3 * * *")

		s.runOnce()

		assert.Equal(t, 0, ingest.calls)
		assert.Equal(t, 0, lock.released)
	})

	t.Run("releases the lock when the run fails", func(t *testing.T) {
		ingest := &fakeIngest{err: errors.New("provider unavailable")}
		lock := &fakeLock{acquired: true}
		s := NewIngestScheduler(ingest, lock, "0 3 * * *")

		s.runOnce()

		assert.Equal(t, 1, ingest.calls)
		assert.Equal(t, 1, lock.released)
	})
}

func TestIngestScheduler_StartRejectsBadSchedule(t *testing.T) {
	s := NewIngestScheduler(&fakeIngest{}, &fakeLock{acquired: true}, "not a schedule")
	err := s.Start()
	require.Error(t, err)
}

func TestIngestScheduler_StartStop(t *testing.T) {
	s := NewIngestScheduler(&fakeIngest{}, &fakeLock{acquired: true}, "0 3 * * *")
	require.NoError(t, s.Start())
	s.Stop()
}
