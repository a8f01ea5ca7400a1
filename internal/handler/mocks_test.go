package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
	"github.com/Defi-Moses/tik-tok-metrics/internal/repository"
	"github.com/Defi-Moses/tik-tok-metrics/internal/service"
)

// memAccountRepo is an in-memory AccountRepository for handler tests.
type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	nextID   int
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: map[string]*model.Account{}}
}

func (m *memAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account, ok := m.accounts[id]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, nil
}

func (m *memAccountRepo) FindByTikTokUserID(ctx context.Context, tiktokUserID string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.TikTokUserID == tiktokUserID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memAccountRepo) FindIngestible(ctx context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var accounts []model.Account
	for _, account := range m.accounts {
		if account.AccessToken != nil && account.RefreshToken != nil {
			accounts = append(accounts, *account)
		}
	}
	return accounts, nil
}

func (m *memAccountRepo) Upsert(ctx context.Context, params model.UpsertAccountParams) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, account := range m.accounts {
		if account.TikTokUserID == params.TikTokUserID {
			account.DisplayName = params.DisplayName
			account.AvatarURL = params.AvatarURL
			account.AccessToken = &params.AccessToken
			account.RefreshToken = &params.RefreshToken
			account.UpdatedAt = now
			copied := *account
			return &copied, nil
		}
	}

	m.nextID++
	account := &model.Account{
		ID:           fmt.Sprintf("acc-%d", m.nextID),
		TikTokUserID: params.TikTokUserID,
		DisplayName:  params.DisplayName,
		AvatarURL:    params.AvatarURL,
		AccessToken:  &params.AccessToken,
		RefreshToken: &params.RefreshToken,
		ConnectedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.accounts[account.ID] = account
	copied := *account
	return &copied, nil
}

func (m *memAccountRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account, ok := m.accounts[id]; ok {
		account.AccessToken = &accessToken
		account.RefreshToken = &refreshToken
	}
	return nil
}

func (m *memAccountRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	return nil
}

func (m *memAccountRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts), nil
}

func (m *memAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return m
}

// stubSnapshotRepo overrides only the queries a test needs.
type stubSnapshotRepo struct {
	latest           func(ctx context.Context, accountID string) (*model.Snapshot, error)
	since            func(ctx context.Context, accountID string, days int) ([]model.Snapshot, error)
	inRange          func(ctx context.Context, accountID string, start, end time.Time) ([]model.Snapshot, error)
	latestAtOrBefore func(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error)
}

func (s *stubSnapshotRepo) UpsertDaily(ctx context.Context, accountID string, day time.Time, metrics model.SnapshotMetrics) (*model.Snapshot, error) {
	return nil, nil
}

func (s *stubSnapshotRepo) FindByAccountAndDate(ctx context.Context, accountID string, day time.Time) (*model.Snapshot, error) {
	return nil, nil
}

func (s *stubSnapshotRepo) Latest(ctx context.Context, accountID string) (*model.Snapshot, error) {
	if s.latest == nil {
		return nil, nil
	}
	return s.latest(ctx, accountID)
}

func (s *stubSnapshotRepo) Since(ctx context.Context, accountID string, days int) ([]model.Snapshot, error) {
	if s.since == nil {
		return nil, nil
	}
	return s.since(ctx, accountID, days)
}

func (s *stubSnapshotRepo) InRange(ctx context.Context, accountID string, start, end time.Time) ([]model.Snapshot, error) {
	if s.inRange == nil {
		return nil, nil
	}
	return s.inRange(ctx, accountID, start, end)
}

func (s *stubSnapshotRepo) LatestAtOrBefore(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error) {
	if s.latestAtOrBefore == nil {
		return nil, nil
	}
	return s.latestAtOrBefore(ctx, accountID, cutoff)
}

func (s *stubSnapshotRepo) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	return 0, nil
}

func (s *stubSnapshotRepo) WithTx(tx *sqlx.Tx) repository.SnapshotRepository {
	return s
}

type stubIngest struct {
	summary *service.IngestSummary
	err     error
	calls   int
}

func (s *stubIngest) Run(ctx context.Context) (*service.IngestSummary, error) {
	s.calls++
	return s.summary, s.err
}

type stubLock struct {
	acquired bool
	err      error
	released int
}

func (s *stubLock) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return s.acquired, s.err
}

func (s *stubLock) Release(ctx context.Context) error {
	s.released++
	return nil
}
