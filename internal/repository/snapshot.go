package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
)

type SnapshotRepository interface {
	// UpsertDaily inserts the snapshot for (accountID, day) or overwrites the
	// existing row. day must be a UTC midnight.
	UpsertDaily(ctx context.Context, accountID string, day time.Time, metrics model.SnapshotMetrics) (*model.Snapshot, error)
	FindByAccountAndDate(ctx context.Context, accountID string, day time.Time) (*model.Snapshot, error)
	Latest(ctx context.Context, accountID string) (*model.Snapshot, error)
	// Since returns snapshots from the last N days, oldest first.
	Since(ctx context.Context, accountID string, days int) ([]model.Snapshot, error)
	InRange(ctx context.Context, accountID string, start, end time.Time) ([]model.Snapshot, error)
	// LatestAtOrBefore returns the newest snapshot dated at or before cutoff.
	LatestAtOrBefore(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error)
	DeleteByAccountID(ctx context.Context, accountID string) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SnapshotRepository
}

type snapshotRepo struct {
	db sqlxDB
}

func NewSnapshotRepository(db *sqlx.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) WithTx(tx *sqlx.Tx) SnapshotRepository {
	return &snapshotRepo{db: tx}
}

func (r *snapshotRepo) UpsertDaily(ctx context.Context, accountID string, day time.Time, metrics model.SnapshotMetrics) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	err := r.db.GetContext(ctx, &snapshot, `
		INSERT INTO daily_snapshots (
			account_id, snapshot_date, follower_count, following_count,
			total_likes, total_views, total_comments, total_shares, video_count, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (account_id, snapshot_date) DO UPDATE SET
			follower_count = EXCLUDED.follower_count,
			following_count = EXCLUDED.following_count,
			total_likes = EXCLUDED.total_likes,
			total_views = EXCLUDED.total_views,
			total_comments = EXCLUDED.total_comments,
			total_shares = EXCLUDED.total_shares,
			video_count = EXCLUDED.video_count,
			recorded_at = NOW()
		RETURNING *
	`, accountID, day, metrics.FollowerCount, metrics.FollowingCount,
		metrics.TotalLikes, metrics.TotalViews, metrics.TotalComments, metrics.TotalShares, metrics.VideoCount)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *snapshotRepo) FindByAccountAndDate(ctx context.Context, accountID string, day time.Time) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	err := r.db.GetContext(ctx, &snapshot, `
		SELECT * FROM daily_snapshots
		WHERE account_id = $1 AND snapshot_date = $2
	`, accountID, day)
	return HandleNotFound(&snapshot, err)
}

func (r *snapshotRepo) Latest(ctx context.Context, accountID string) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	err := r.db.GetContext(ctx, &snapshot, `
		SELECT * FROM daily_snapshots
		WHERE account_id = $1
		ORDER BY snapshot_date DESC
		LIMIT 1
	`, accountID)
	return HandleNotFound(&snapshot, err)
}

func (r *snapshotRepo) Since(ctx context.Context, accountID string, days int) ([]model.Snapshot, error) {
	var snapshots []model.Snapshot
	err := r.db.SelectContext(ctx, &snapshots, `
		SELECT * FROM daily_snapshots
		WHERE account_id = $1 AND snapshot_date >= (CURRENT_DATE - $2::int)
		ORDER BY snapshot_date ASC
	`, accountID, days)
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *snapshotRepo) InRange(ctx context.Context, accountID string, start, end time.Time) ([]model.Snapshot, error) {
	var snapshots []model.Snapshot
	err := r.db.SelectContext(ctx, &snapshots, `
		SELECT * FROM daily_snapshots
		WHERE account_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		ORDER BY snapshot_date ASC
	`, accountID, start, end)
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *snapshotRepo) LatestAtOrBefore(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	err := r.db.GetContext(ctx, &snapshot, `
		SELECT * FROM daily_snapshots
		WHERE account_id = $1 AND snapshot_date <= $2
		ORDER BY snapshot_date DESC
		LIMIT 1
	`, accountID, cutoff)
	return HandleNotFound(&snapshot, err)
}

func (r *snapshotRepo) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM daily_snapshots WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
