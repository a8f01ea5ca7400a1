package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Defi-Moses/tik-tok-metrics/internal/errors"
	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
	"github.com/Defi-Moses/tik-tok-metrics/internal/repository"
)

// ErrInsufficientHistory means the account does not yet have a snapshot old
// enough for the requested comparison. Callers surface it explicitly instead
// of pretending the deltas are zero.
var ErrInsufficientHistory = errors.New("not enough snapshot history for comparison")

// WeekDelta compares the latest snapshot with the newest one at least a week
// old.
type WeekDelta struct {
	Latest   *model.Snapshot `json:"latest"`
	Previous *model.Snapshot `json:"previous"`

	FollowerDelta int64 `json:"followerDelta"`
	LikesDelta    int64 `json:"likesDelta"`
	ViewsDelta    int64 `json:"viewsDelta"`
	VideoDelta    int64 `json:"videoDelta"`
}

type StatsService struct {
	snapshotRepo repository.SnapshotRepository
	now          func() time.Time
}

func NewStatsService(snapshotRepo repository.SnapshotRepository) *StatsService {
	return &StatsService{
		snapshotRepo: snapshotRepo,
		now:          time.Now,
	}
}

func (s *StatsService) WeekDelta(ctx context.Context, accountID string) (*WeekDelta, error) {
	latest, err := s.snapshotRepo.Latest(ctx, accountID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if latest == nil {
		return nil, ErrInsufficientHistory
	}

	cutoff := utcMidnight(s.now()).AddDate(0, 0, -7)
	previous, err := s.snapshotRepo.LatestAtOrBefore(ctx, accountID, cutoff)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if previous == nil || previous.ID == latest.ID {
		return nil, ErrInsufficientHistory
	}

	return &WeekDelta{
		Latest:        latest,
		Previous:      previous,
		FollowerDelta: latest.FollowerCount - previous.FollowerCount,
		LikesDelta:    latest.TotalLikes - previous.TotalLikes,
		ViewsDelta:    latest.TotalViews - previous.TotalViews,
		VideoDelta:    latest.VideoCount - previous.VideoCount,
	}, nil
}
