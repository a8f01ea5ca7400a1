package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
)

func TestStatsService_WeekDelta(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	newStats := func(repo *mockSnapshotRepo) *StatsService {
		svc := NewStatsService(repo)
		svc.now = func() time.Time { return now }
		return svc
	}

	t.Run("no history at all", func(t *testing.T) {
		svc := newStats(&mockSnapshotRepo{})
		_, err := svc.WeekDelta(ctx, "acc-1")
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("no snapshot old enough", func(t *testing.T) {
		latest := &model.Snapshot{ID: "snap-1", FollowerCount: 100}
		svc := newStats(&mockSnapshotRepo{
			latest: func(ctx context.Context, accountID string) (*model.Snapshot, error) {
				return latest, nil
			},
		})
		_, err := svc.WeekDelta(ctx, "acc-1")
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("single snapshot is both latest and previous", func(t *testing.T) {
		only := &model.Snapshot{ID: "snap-1", FollowerCount: 100}
		svc := newStats(&mockSnapshotRepo{
			latest: func(ctx context.Context, accountID string) (*model.Snapshot, error) {
				return only, nil
			},
			latestAtOrBefore: func(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error) {
				return only, nil
			},
		})
		_, err := svc.WeekDelta(ctx, "acc-1")
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("computes deltas against week-old baseline", func(t *testing.T) {
		latest := &model.Snapshot{
			ID:            "snap-new",
			SnapshotDate:  time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
			FollowerCount: 1200,
			TotalLikes:    500,
			TotalViews:    9000,
			VideoCount:    42,
		}
		previous := &model.Snapshot{
			ID:            "snap-old",
			SnapshotDate:  time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC),
			FollowerCount: 1000,
			TotalLikes:    450,
			TotalViews:    8000,
			VideoCount:    40,
		}

		var gotCutoff time.Time
		svc := newStats(&mockSnapshotRepo{
			latest: func(ctx context.Context, accountID string) (*model.Snapshot, error) {
				return latest, nil
			},
			latestAtOrBefore: func(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error) {
				gotCutoff = cutoff
				return previous, nil
			},
		})

		delta, err := svc.WeekDelta(ctx, "acc-1")
		require.NoError(t, err)

		assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), gotCutoff)
		assert.Equal(t, int64(200), delta.FollowerDelta)
		assert.Equal(t, int64(50), delta.LikesDelta)
		assert.Equal(t, int64(1000), delta.ViewsDelta)
		assert.Equal(t, int64(2), delta.VideoDelta)
		assert.Equal(t, latest, delta.Latest)
		assert.Equal(t, previous, delta.Previous)
	})

	t.Run("shrinking counts produce negative deltas", func(t *testing.T) {
		latest := &model.Snapshot{ID: "snap-new", FollowerCount: 900, VideoCount: 38}
		previous := &model.Snapshot{ID: "snap-old", FollowerCount: 1000, VideoCount: 40}
		svc := newStats(&mockSnapshotRepo{
			latest: func(ctx context.Context, accountID string) (*model.Snapshot, error) {
				return latest, nil
			},
			latestAtOrBefore: func(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error) {
				return previous, nil
			},
		})

		delta, err := svc.WeekDelta(ctx, "acc-1")
		require.NoError(t, err)
		assert.Equal(t, int64(-100), delta.FollowerDelta)
		assert.Equal(t, int64(-2), delta.VideoDelta)
	})
}
