package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Defi-Moses/tik-tok-metrics/internal/model"
	"github.com/Defi-Moses/tik-tok-metrics/internal/repository"
	"github.com/Defi-Moses/tik-tok-metrics/internal/tiktok"
	"github.com/Defi-Moses/tik-tok-metrics/internal/util"
	"github.com/Defi-Moses/tik-tok-metrics/internal/vault"
)

// ConnectCode is the outcome of a connect/disconnect attempt, surfaced to the
// dashboard as /connect?success=<code> or /connect?error=<code>.
type ConnectCode string

const (
	CodeTikTokConnected     ConnectCode = "tiktok_connected"
	CodeAccountDisconnected ConnectCode = "account_disconnected"

	CodeOAuthDenied         ConnectCode = "oauth_denied"
	CodeInvalidClientKey    ConnectCode = "invalid_client_key"
	CodeInvalidRedirectURI  ConnectCode = "invalid_redirect_uri"
	CodeNoCode              ConnectCode = "no_code"
	CodeInvalidState        ConnectCode = "invalid_state"
	CodeTokenExchangeFailed ConnectCode = "token_exchange_failed"
	CodeUserFetchFailed     ConnectCode = "user_fetch_failed"
	CodeTokenExpired        ConnectCode = "token_expired"
	CodeRateLimit           ConnectCode = "rate_limit"
	CodeDatabaseError       ConnectCode = "database_error"
	CodeUnexpectedError     ConnectCode = "unexpected_error"
	CodeDisconnectFailed    ConnectCode = "disconnect_failed"
)

func (c ConnectCode) IsSuccess() bool {
	return c == CodeTikTokConnected || c == CodeAccountDisconnected
}

// Handshake is the ephemeral state of one in-flight authorization attempt.
// It lives in signed cookies for the duration of the handshake and is never
// persisted to the database.
type Handshake struct {
	State        string
	CodeVerifier string
}

// CallbackParams are the provider's callback query (or form) parameters.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	// HasParams is false when the callback carried no parameters at all,
	// which is symptomatic of a misconfigured redirect URL.
	HasParams bool
}

type oauthProviderClient interface {
	AuthorizationURL(state, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*tiktok.TokenResponse, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*tiktok.UserInfo, error)
}

// OAuthService drives the authorization-code + PKCE handshake:
// Initiated -> CallbackReceived -> TokenExchanged -> AccountUpserted.
// Every failure exit maps to a ConnectCode; nothing escapes past Complete.
type OAuthService struct {
	client      oauthProviderClient
	tokenVault  *vault.Vault
	accountRepo repository.AccountRepository
}

func NewOAuthService(client oauthProviderClient, tokenVault *vault.Vault, accountRepo repository.AccountRepository) *OAuthService {
	return &OAuthService{
		client:      client,
		tokenVault:  tokenVault,
		accountRepo: accountRepo,
	}
}

// Begin generates the CSRF state and PKCE verifier for a new attempt and
// returns them with the provider authorization URL.
func (s *OAuthService) Begin() (*Handshake, string, error) {
	state, err := util.GenerateToken()
	if err != nil {
		return nil, "", err
	}
	verifier, err := util.GenerateCodeVerifier()
	if err != nil {
		return nil, "", err
	}

	authURL := s.client.AuthorizationURL(state, util.CodeChallenge(verifier))
	return &Handshake{State: state, CodeVerifier: verifier}, authURL, nil
}

// Complete runs the callback half of the handshake. The handshake argument is
// whatever survived the cookie round-trip; nil means the cookies were missing
// or expired. Failures are terminal for the attempt, the user re-initiates.
func (s *OAuthService) Complete(ctx context.Context, params CallbackParams, handshake *Handshake) ConnectCode {
	if params.Error != "" {
		code := classifyProviderError(params.Error, params.ErrorDescription)
		log.Warn().
			Str("error", params.Error).
			Str("description", params.ErrorDescription).
			Str("classified", string(code)).
			Msg("oauth provider reported an error")
		return code
	}

	if params.Code == "" {
		if !params.HasParams {
			// An empty callback query usually means the registered redirect
			// URL does not match this deployment.
			return CodeInvalidRedirectURI
		}
		return CodeNoCode
	}

	if handshake == nil || handshake.State == "" || params.State != handshake.State {
		log.Warn().Msg("oauth state mismatch")
		return CodeInvalidState
	}
	if handshake.CodeVerifier == "" {
		log.Warn().Msg("oauth code verifier missing")
		return CodeInvalidState
	}

	tok, err := s.client.ExchangeCode(ctx, params.Code, handshake.CodeVerifier)
	if err != nil {
		var rateErr *tiktok.RateLimitError
		if errors.As(err, &rateErr) {
			return CodeRateLimit
		}
		log.Error().Err(err).Str("code", util.MaskCode(params.Code)).Msg("token exchange failed")
		return CodeTokenExchangeFailed
	}

	info, err := s.client.FetchUserInfo(ctx, tok.AccessToken)
	if err != nil {
		var rateErr *tiktok.RateLimitError
		var expiredErr *tiktok.TokenExpiredError
		switch {
		case errors.As(err, &rateErr):
			return CodeRateLimit
		case errors.As(err, &expiredErr):
			return CodeTokenExpired
		default:
			log.Error().Err(err).Msg("user info fetch failed")
			return CodeUserFetchFailed
		}
	}

	sealedAccess, err := s.tokenVault.Seal(tok.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to seal access token")
		return CodeUnexpectedError
	}
	sealedRefresh, err := s.tokenVault.Seal(tok.RefreshToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to seal refresh token")
		return CodeUnexpectedError
	}

	var avatarURL *string
	if info.AvatarURL != "" {
		avatarURL = &info.AvatarURL
	}

	account, err := s.accountRepo.Upsert(ctx, model.UpsertAccountParams{
		TikTokUserID: tok.OpenID,
		DisplayName:  info.DisplayName,
		AvatarURL:    avatarURL,
		AccessToken:  sealedAccess,
		RefreshToken: sealedRefresh,
	})
	if err != nil {
		log.Error().Err(err).Str("tiktokUserId", tok.OpenID).Msg("account upsert failed")
		return CodeDatabaseError
	}

	log.Info().
		Str("accountId", account.ID).
		Str("tiktokUserId", account.TikTokUserID).
		Str("displayName", account.DisplayName).
		Msg("tiktok account connected")

	return CodeTikTokConnected
}

// classifyProviderError maps the provider's callback error parameters to a
// ConnectCode. Exact error codes first; the description substring heuristics
// are a fallback because the provider is not consistent about which field
// carries the detail.
func classifyProviderError(errParam, description string) ConnectCode {
	switch errParam {
	case "invalid_client_key":
		return CodeInvalidClientKey
	case "invalid_redirect_uri":
		return CodeInvalidRedirectURI
	}

	combined := strings.ToLower(errParam + " " + description)
	if strings.Contains(combined, "client_key") {
		return CodeInvalidClientKey
	}
	if strings.Contains(combined, "redirect_uri") {
		return CodeInvalidRedirectURI
	}
	return CodeOAuthDenied
}
