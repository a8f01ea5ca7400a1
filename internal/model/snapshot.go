package model

import (
	"time"
)

// Snapshot is one day's aggregate of an account's public metrics.
// (account_id, snapshot_date) is unique; the ingestion job overwrites the row
// when it runs twice on the same UTC day.
type Snapshot struct {
	ID             string    `db:"id" json:"id"`
	AccountID      string    `db:"account_id" json:"accountId"`
	SnapshotDate   time.Time `db:"snapshot_date" json:"snapshotDate"`
	FollowerCount  int64     `db:"follower_count" json:"followerCount"`
	FollowingCount int64     `db:"following_count" json:"followingCount"`
	TotalLikes     int64     `db:"total_likes" json:"totalLikes"`
	TotalViews     int64     `db:"total_views" json:"totalViews"`
	TotalComments  int64     `db:"total_comments" json:"totalComments"`
	TotalShares    int64     `db:"total_shares" json:"totalShares"`
	VideoCount     int64     `db:"video_count" json:"videoCount"`
	RecordedAt     time.Time `db:"recorded_at" json:"recordedAt"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

type SnapshotMetrics struct {
	FollowerCount  int64
	FollowingCount int64
	TotalLikes     int64
	TotalViews     int64
	TotalComments  int64
	TotalShares    int64
	VideoCount     int64
}
