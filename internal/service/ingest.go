package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Defi-Moses/tik-tok-metrics/internal/config"
	apperrors "github.com/Defi-Moses/tik-tok-metrics/internal/errors"
	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
	"github.com/Defi-Moses/tik-tok-metrics/internal/repository"
	"github.com/Defi-Moses/tik-tok-metrics/internal/tiktok"
	"github.com/Defi-Moses/tik-tok-metrics/internal/vault"
)

type ingestClient interface {
	RefreshToken(ctx context.Context, refreshToken string) (*tiktok.TokenResponse, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*tiktok.UserInfo, error)
	FetchVideoPage(ctx context.Context, accessToken, cursor string) (*tiktok.VideoListResponse, error)
}

// AccountError records one failed account inside an otherwise successful run.
type AccountError struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Error       string `json:"error"`
}

type IngestSummary struct {
	TotalAccounts   int            `json:"totalAccounts"`
	Processed       int            `json:"processed"`
	Errors          int            `json:"errors"`
	ErrorsByAccount []AccountError `json:"errorsByAccount"`
}

// IngestService walks every connected account, pulls the current profile and
// video totals from the provider and records one snapshot per account per UTC
// day. Accounts are processed strictly sequentially with pacing delays so the
// job itself never trips the provider's rate limits.
type IngestService struct {
	accountRepo  repository.AccountRepository
	snapshotRepo repository.SnapshotRepository
	client       ingestClient
	tokenVault   *vault.Vault

	// Injectable for tests.
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

func NewIngestService(
	accountRepo repository.AccountRepository,
	snapshotRepo repository.SnapshotRepository,
	client ingestClient,
	tokenVault *vault.Vault,
) *IngestService {
	return &IngestService{
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
		client:       client,
		tokenVault:   tokenVault,
		sleep:        sleepContext,
		now:          time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Run executes one full ingestion pass. A failing account is recorded in the
// summary and never aborts the run; only a repository failure on the initial
// account listing is a run-level error.
func (s *IngestService) Run(ctx context.Context) (*IngestSummary, error) {
	started := s.now()

	accounts, err := s.accountRepo.FindIngestible(ctx)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	summary := &IngestSummary{
		TotalAccounts:   len(accounts),
		ErrorsByAccount: []AccountError{},
	}

	log.Info().Int("accounts", len(accounts)).Msg("ingestion run started")

	for i := range accounts {
		account := &accounts[i]
		if i > 0 {
			s.sleep(ctx, config.IngestAccountDelay)
		}

		if err := s.processAccount(ctx, account); err != nil {
			summary.Errors++
			summary.ErrorsByAccount = append(summary.ErrorsByAccount, AccountError{
				AccountID:   account.ID,
				DisplayName: account.DisplayName,
				Error:       err.Error(),
			})
			log.Error().Err(err).
				Str("accountId", account.ID).
				Str("displayName", account.DisplayName).
				Msg("account ingestion failed")

			var rateErr *tiktok.RateLimitError
			if errors.As(err, &rateErr) {
				log.Warn().
					Dur("cooldown", config.IngestRateLimitCooldown).
					Msg("provider rate limit hit, cooling down before next account")
				s.sleep(ctx, config.IngestRateLimitCooldown)
			}
			continue
		}
		summary.Processed++
	}

	log.Info().
		Int("processed", summary.Processed).
		Int("errors", summary.Errors).
		Dur("elapsed", s.now().Sub(started)).
		Msg("ingestion run finished")

	return summary, nil
}

func (s *IngestService) processAccount(ctx context.Context, account *model.Account) error {
	if account.AccessToken == nil || account.RefreshToken == nil {
		return errors.New("account has no stored tokens")
	}

	accessToken, err := s.tokenVault.Open(*account.AccessToken)
	if err != nil {
		return fmt.Errorf("open access token seal: %w", err)
	}
	refreshToken, err := s.tokenVault.Open(*account.RefreshToken)
	if err != nil {
		return fmt.Errorf("open refresh token seal: %w", err)
	}

	info, err := s.client.FetchUserInfo(ctx, accessToken)
	if err != nil {
		var expiredErr *tiktok.TokenExpiredError
		if !errors.As(err, &expiredErr) {
			return err
		}
		// One refresh-and-retry; a second expiry means the grant is dead and
		// the user has to reconnect.
		accessToken, refreshToken, err = s.rotateTokens(ctx, account, refreshToken)
		if err != nil {
			return fmt.Errorf("token refresh: %w", err)
		}
		info, err = s.client.FetchUserInfo(ctx, accessToken)
		if err != nil {
			return err
		}
	}

	var totals model.SnapshotMetrics
	cursor := ""
	for page := 0; page < config.IngestMaxVideoPages; page++ {
		if page > 0 {
			s.sleep(ctx, config.IngestPageDelay)
		}

		resp, err := s.client.FetchVideoPage(ctx, accessToken, cursor)
		if err != nil {
			var expiredErr *tiktok.TokenExpiredError
			if !errors.As(err, &expiredErr) {
				return err
			}
			accessToken, refreshToken, err = s.rotateTokens(ctx, account, refreshToken)
			if err != nil {
				return fmt.Errorf("token refresh: %w", err)
			}
			resp, err = s.client.FetchVideoPage(ctx, accessToken, cursor)
			if err != nil {
				return err
			}
		}

		for _, video := range resp.Videos {
			totals.TotalLikes += video.LikeCount
			totals.TotalViews += video.ViewCount
			totals.TotalComments += video.CommentCount
			totals.TotalShares += video.ShareCount
			totals.VideoCount++
		}

		cursor = resp.Cursor
		if !resp.HasMore {
			break
		}
	}

	totals.FollowerCount = info.FollowerCount

	day := utcMidnight(s.now())
	if _, err := s.snapshotRepo.UpsertDaily(ctx, account.ID, day, totals); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("displayName", account.DisplayName).
		Int64("followers", totals.FollowerCount).
		Int64("videos", totals.VideoCount).
		Time("snapshotDate", day).
		Msg("snapshot recorded")

	return nil
}

// rotateTokens exchanges the refresh token for a fresh pair, persists the
// sealed pair and returns the plaintext pair for immediate use.
func (s *IngestService) rotateTokens(ctx context.Context, account *model.Account, refreshToken string) (string, string, error) {
	tok, err := s.client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}

	sealedAccess, err := s.tokenVault.Seal(tok.AccessToken)
	if err != nil {
		return "", "", fmt.Errorf("seal access token: %w", err)
	}
	sealedRefresh, err := s.tokenVault.Seal(tok.RefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("seal refresh token: %w", err)
	}

	if err := s.accountRepo.UpdateTokens(ctx, account.ID, sealedAccess, sealedRefresh); err != nil {
		return "", "", fmt.Errorf("persist rotated tokens: %w", err)
	}

	log.Info().Str("accountId", account.ID).Msg("tokens refreshed")
	return tok.AccessToken, tok.RefreshToken, nil
}

func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
