package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
	"github.com/Defi-Moses/tik-tok-metrics/internal/repository"
	"github.com/Defi-Moses/tik-tok-metrics/internal/tiktok"
)

type mockAccountRepo struct {
	findByID           func(ctx context.Context, id string) (*model.Account, error)
	findByTikTokUserID func(ctx context.Context, tiktokUserID string) (*model.Account, error)
	findIngestible     func(ctx context.Context) ([]model.Account, error)
	upsert             func(ctx context.Context, params model.UpsertAccountParams) (*model.Account, error)
	updateTokens       func(ctx context.Context, id, accessToken, refreshToken string) error
	deleteFn           func(ctx context.Context, id string) error
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByID == nil {
		return nil, nil
	}
	return m.findByID(ctx, id)
}

func (m *mockAccountRepo) FindByTikTokUserID(ctx context.Context, tiktokUserID string) (*model.Account, error) {
	if m.findByTikTokUserID == nil {
		return nil, nil
	}
	return m.findByTikTokUserID(ctx, tiktokUserID)
}

func (m *mockAccountRepo) FindIngestible(ctx context.Context) ([]model.Account, error) {
	if m.findIngestible == nil {
		return nil, nil
	}
	return m.findIngestible(ctx)
}

func (m *mockAccountRepo) Upsert(ctx context.Context, params model.UpsertAccountParams) (*model.Account, error) {
	if m.upsert == nil {
		return nil, nil
	}
	return m.upsert(ctx, params)
}

func (m *mockAccountRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	if m.updateTokens == nil {
		return nil
	}
	return m.updateTokens(ctx, id, accessToken, refreshToken)
}

func (m *mockAccountRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

func (m *mockAccountRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return m
}

type mockSnapshotRepo struct {
	upsertDaily          func(ctx context.Context, accountID string, day time.Time, metrics model.SnapshotMetrics) (*model.Snapshot, error)
	findByAccountAndDate func(ctx context.Context, accountID string, day time.Time) (*model.Snapshot, error)
	latest               func(ctx context.Context, accountID string) (*model.Snapshot, error)
	since                func(ctx context.Context, accountID string, days int) ([]model.Snapshot, error)
	inRange              func(ctx context.Context, accountID string, start, end time.Time) ([]model.Snapshot, error)
	latestAtOrBefore     func(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error)
	deleteByAccountID    func(ctx context.Context, accountID string) (int64, error)
}

func (m *mockSnapshotRepo) UpsertDaily(ctx context.Context, accountID string, day time.Time, metrics model.SnapshotMetrics) (*model.Snapshot, error) {
	if m.upsertDaily == nil {
		return &model.Snapshot{AccountID: accountID, SnapshotDate: day}, nil
	}
	return m.upsertDaily(ctx, accountID, day, metrics)
}

func (m *mockSnapshotRepo) FindByAccountAndDate(ctx context.Context, accountID string, day time.Time) (*model.Snapshot, error) {
	if m.findByAccountAndDate == nil {
		return nil, nil
	}
	return m.findByAccountAndDate(ctx, accountID, day)
}

func (m *mockSnapshotRepo) Latest(ctx context.Context, accountID string) (*model.Snapshot, error) {
	if m.latest == nil {
		return nil, nil
	}
	return m.latest(ctx, accountID)
}

func (m *mockSnapshotRepo) Since(ctx context.Context, accountID string, days int) ([]model.Snapshot, error) {
	if m.since == nil {
		return nil, nil
	}
	return m.since(ctx, accountID, days)
}

func (m *mockSnapshotRepo) InRange(ctx context.Context, accountID string, start, end time.Time) ([]model.Snapshot, error) {
	if m.inRange == nil {
		return nil, nil
	}
	return m.inRange(ctx, accountID, start, end)
}

func (m *mockSnapshotRepo) LatestAtOrBefore(ctx context.Context, accountID string, cutoff time.Time) (*model.Snapshot, error) {
	if m.latestAtOrBefore == nil {
		return nil, nil
	}
	return m.latestAtOrBefore(ctx, accountID, cutoff)
}

func (m *mockSnapshotRepo) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	if m.deleteByAccountID == nil {
		return 0, nil
	}
	return m.deleteByAccountID(ctx, accountID)
}

func (m *mockSnapshotRepo) WithTx(tx *sqlx.Tx) repository.SnapshotRepository {
	return m
}

type mockProviderClient struct {
	authorizationURL func(state, codeChallenge string) string
	exchangeCode     func(ctx context.Context, code, codeVerifier string) (*tiktok.TokenResponse, error)
	refreshToken     func(ctx context.Context, refreshToken string) (*tiktok.TokenResponse, error)
	fetchUserInfo    func(ctx context.Context, accessToken string) (*tiktok.UserInfo, error)
	fetchVideoPage   func(ctx context.Context, accessToken, cursor string) (*tiktok.VideoListResponse, error)
}

func (m *mockProviderClient) AuthorizationURL(state, codeChallenge string) string {
	if m.authorizationURL == nil {
		return "https://provider.example/authorize?state=" + state
	}
	return m.authorizationURL(state, codeChallenge)
}

func (m *mockProviderClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (*tiktok.TokenResponse, error) {
	return m.exchangeCode(ctx, code, codeVerifier)
}

func (m *mockProviderClient) RefreshToken(ctx context.Context, refreshToken string) (*tiktok.TokenResponse, error) {
	return m.refreshToken(ctx, refreshToken)
}

func (m *mockProviderClient) FetchUserInfo(ctx context.Context, accessToken string) (*tiktok.UserInfo, error) {
	return m.fetchUserInfo(ctx, accessToken)
}

func (m *mockProviderClient) FetchVideoPage(ctx context.Context, accessToken, cursor string) (*tiktok.VideoListResponse, error) {
	return m.fetchVideoPage(ctx, accessToken, cursor)
}
