package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Defi-Moses/tik-tok-metrics/internal/database"
	apperrors "github.com/Defi-Moses/tik-tok-metrics/internal/errors"
	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
	"github.com/Defi-Moses/tik-tok-metrics/internal/repository"
)

// AccountWithSnapshot is an account joined with its most recent snapshot for
// the dashboard listing.
type AccountWithSnapshot struct {
	model.Account
	LatestSnapshot *model.Snapshot `json:"latestSnapshot,omitempty"`
}

type AccountService struct {
	db           *database.DB
	accountRepo  repository.AccountRepository
	snapshotRepo repository.SnapshotRepository
}

func NewAccountService(db *database.DB, accountRepo repository.AccountRepository, snapshotRepo repository.SnapshotRepository) *AccountService {
	return &AccountService{
		db:           db,
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
	}
}

func (s *AccountService) List(ctx context.Context) ([]AccountWithSnapshot, error) {
	accounts, err := s.accountRepo.FindIngestible(ctx)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	result := make([]AccountWithSnapshot, 0, len(accounts))
	for _, account := range accounts {
		latest, err := s.snapshotRepo.Latest(ctx, account.ID)
		if err != nil {
			return nil, apperrors.Persistence(err)
		}
		result = append(result, AccountWithSnapshot{
			Account:        account,
			LatestSnapshot: latest,
		})
	}
	return result, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}

// Snapshots returns the account's snapshots from the last N days, oldest
// first.
func (s *AccountService) Snapshots(ctx context.Context, id string, days int) ([]model.Snapshot, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	snapshots, err := s.snapshotRepo.Since(ctx, id, days)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return snapshots, nil
}

func (s *AccountService) SnapshotsInRange(ctx context.Context, id string, start, end time.Time) ([]model.Snapshot, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	snapshots, err := s.snapshotRepo.InRange(ctx, id, start, end)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return snapshots, nil
}

// Disconnect removes the account and its snapshot history in one transaction.
func (s *AccountService) Disconnect(ctx context.Context, id string) error {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Persistence(err)
	}
	if account == nil {
		return apperrors.NotFound("Account")
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.snapshotRepo.WithTx(tx).DeleteByAccountID(ctx, id); err != nil {
			return err
		}
		return s.accountRepo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return apperrors.Persistence(err)
	}

	log.Info().
		Str("accountId", id).
		Str("tiktokUserId", account.TikTokUserID).
		Msg("account disconnected")

	return nil
}
