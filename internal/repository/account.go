package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByTikTokUserID(ctx context.Context, tiktokUserID string) (*model.Account, error)
	// FindIngestible returns accounts with both tokens present, newest first.
	FindIngestible(ctx context.Context) ([]model.Account, error)
	// Upsert creates or refreshes the account keyed on tiktok_user_id.
	Upsert(ctx context.Context, params model.UpsertAccountParams) (*model.Account, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

// sqlxDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM tiktok_accounts WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByTikTokUserID(ctx context.Context, tiktokUserID string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM tiktok_accounts WHERE tiktok_user_id = $1
	`, tiktokUserID)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindIngestible(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM tiktok_accounts
		WHERE access_token IS NOT NULL AND refresh_token IS NOT NULL
		ORDER BY connected_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) Upsert(ctx context.Context, params model.UpsertAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO tiktok_accounts (tiktok_user_id, display_name, avatar_url, access_token, refresh_token, connected_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (tiktok_user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			connected_at = NOW(),
			updated_at = NOW()
		RETURNING *
	`, params.TikTokUserID, params.DisplayName, params.AvatarURL, params.AccessToken, params.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tiktok_accounts
		SET access_token = $2, refresh_token = $3, updated_at = NOW()
		WHERE id = $1
	`, id, accessToken, refreshToken)
	return err
}

func (r *accountRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tiktok_accounts WHERE id = $1`, id)
	return err
}

func (r *accountRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tiktok_accounts`)
	return count, err
}
