// Package tiktok is a typed client for the TikTok open API: token exchange and
// refresh, user info, and paginated video listing. The API wraps payloads
// inconsistently ({data:{...}} vs flat), so every response is normalized here
// and callers only ever see typed results and typed errors.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultAPIBaseURL  = "https://open.tiktokapis.com"
	defaultAuthBaseURL = "https://www.tiktok.com"

	// Scopes needed for profile and video stats.
	OAuthScope = "user.info.basic,video.list"

	userInfoFields  = "open_id,display_name,avatar_url,follower_count,likes_count"
	videoListFields = "id,create_time,view_count,like_count,comment_count,share_count"
)

// Config carries the app credentials and endpoints. Injected at construction
// so tests can point the client at a stub server.
type Config struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	APIBaseURL   string
	AuthBaseURL  string
	HTTPClient   *http.Client
}

type Client struct {
	clientKey    string
	clientSecret string
	redirectURI  string
	apiBaseURL   string
	authBaseURL  string
	http         *http.Client
}

func NewClient(cfg Config) *Client {
	c := &Client{
		clientKey:    cfg.ClientKey,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		apiBaseURL:   cfg.APIBaseURL,
		authBaseURL:  cfg.AuthBaseURL,
		http:         cfg.HTTPClient,
	}
	if c.apiBaseURL == "" {
		c.apiBaseURL = defaultAPIBaseURL
	}
	if c.authBaseURL == "" {
		c.authBaseURL = defaultAuthBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	return c
}

// AuthorizationURL builds the provider authorization URL for one handshake
// attempt (PKCE S256).
func (c *Client) AuthorizationURL(state, codeChallenge string) string {
	params := url.Values{
		"client_key":            {c.clientKey},
		"redirect_uri":          {c.redirectURI},
		"scope":                 {OAuthScope},
		"response_type":         {"code"},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return c.authBaseURL + "/v2/auth/authorize/?" + params.Encode()
}

// ExchangeCode trades an authorization code plus PKCE verifier for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &InvalidRequestError{Reason: "authorization code is required"}
	}
	if strings.TrimSpace(codeVerifier) == "" {
		return nil, &InvalidRequestError{Reason: "code verifier is required for PKCE"}
	}
	if c.clientKey == "" || c.clientSecret == "" {
		return nil, &InvalidRequestError{Reason: "client credentials are not configured"}
	}

	form := url.Values{
		"client_key":    {c.clientKey},
		"client_secret": {c.clientSecret},
		"code":          {strings.TrimSpace(code)},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.redirectURI},
		"code_verifier": {strings.TrimSpace(codeVerifier)},
	}
	return c.postToken(ctx, form)
}

// RefreshToken trades a refresh token for a fresh token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, &InvalidRequestError{Reason: "refresh token is required"}
	}
	if c.clientKey == "" || c.clientSecret == "" {
		return nil, &InvalidRequestError{Reason: "client credentials are not configured"}
	}

	form := url.Values{
		"client_key":    {c.clientKey},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.postToken(ctx, form)
}

// FetchUserInfo returns profile stats for the token's account.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	endpoint := c.apiBaseURL + "/v2/user/info/?" + url.Values{"fields": {userInfoFields}}.Encode()

	body, err := c.getAuthed(ctx, endpoint, accessToken)
	if err != nil {
		return nil, err
	}

	// Shapes seen in the wild: {data:{user:{...}}}, {data:{...}}, {...}
	payload := unwrapData(body)
	var userEnv struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(payload, &userEnv); err == nil && isPresent(userEnv.User) {
		payload = userEnv.User
	}

	var info UserInfo
	if err := json.Unmarshal(payload, &info); err != nil || info.OpenID == "" {
		log.Error().Str("body", snippet(body)).Msg("unexpected user info response structure")
		return nil, &APIError{StatusCode: http.StatusOK, Message: "unexpected user info response structure"}
	}
	return &info, nil
}

// FetchVideoPage returns one page of the account's videos. Pass an empty
// cursor for the first page; the returned cursor feeds the next call while
// HasMore is true.
func (c *Client) FetchVideoPage(ctx context.Context, accessToken, cursor string) (*VideoListResponse, error) {
	params := url.Values{"fields": {videoListFields}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	endpoint := c.apiBaseURL + "/v2/video/list/?" + params.Encode()

	body, err := c.getAuthed(ctx, endpoint, accessToken)
	if err != nil {
		return nil, err
	}

	var page struct {
		Videos  []Video     `json:"videos"`
		Cursor  json.Number `json:"cursor"`
		HasMore bool        `json:"has_more"`
	}
	if err := json.Unmarshal(unwrapData(body), &page); err != nil {
		log.Error().Str("body", snippet(body)).Msg("unexpected video list response structure")
		return nil, &APIError{StatusCode: http.StatusOK, Message: "unexpected video list response structure"}
	}

	return &VideoListResponse{
		Videos:  page.Videos,
		Cursor:  page.Cursor.String(),
		HasMore: page.HasMore,
	}, nil
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	// Token endpoints return 401 for bad credentials, not an expired access
	// token, so 401 is classified as a generic provider error here.
	if err := classifyStatus(resp, body, false); err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := json.Unmarshal(unwrapData(body), &tok); err != nil || tok.AccessToken == "" {
		log.Error().Str("body", snippet(body)).Msg("unexpected token response structure")
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "unexpected token response structure"}
	}
	return &tok, nil
}

func (c *Client) getAuthed(ctx context.Context, endpoint, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := classifyStatus(resp, body, true); err != nil {
		return nil, err
	}
	return body, nil
}

// classifyStatus maps a non-2xx response to a typed error. Error bodies may be
// JSON in either envelope shape, or not JSON at all.
func classifyStatus(resp *http.Response, body []byte, authed bool) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 0
		if v := resp.Header.Get("Retry-After"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				retryAfter = n
			}
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}

	if authed && resp.StatusCode == http.StatusUnauthorized {
		return &TokenExpiredError{}
	}

	code, message := extractError(resp.StatusCode, body)
	log.Error().Int("status", resp.StatusCode).Str("code", code).Str("message", message).Msg("tiktok api error")
	return &APIError{StatusCode: resp.StatusCode, Code: code, Message: message}
}

// extractError digs an error code and message out of a provider error body,
// tolerating {error:{code,message}}, {error:"...",error_description:"..."},
// {message:"..."} and plain non-JSON text.
func extractError(statusCode int, body []byte) (code, message string) {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Sprintf("HTTP %d: %s", statusCode, snippet(body))
	}

	switch e := parsed["error"].(type) {
	case map[string]any:
		code, _ = e["code"].(string)
		message, _ = e["message"].(string)
	case string:
		code = e
	}
	if message == "" {
		if desc, ok := parsed["error_description"].(string); ok {
			message = desc
		}
	}
	if message == "" {
		if msg, ok := parsed["message"].(string); ok {
			message = msg
		}
	}
	if code == "" {
		if ec, ok := parsed["error_code"].(string); ok {
			code = ec
		}
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", statusCode)
	}
	return code, message
}

// unwrapData returns the inner data object when the payload is wrapped as
// {data:{...}}, and the payload itself otherwise.
func unwrapData(body []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && isPresent(envelope.Data) {
		return envelope.Data
	}
	return body
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func snippet(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
