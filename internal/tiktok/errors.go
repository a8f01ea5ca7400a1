package tiktok

import "fmt"

// InvalidRequestError means the caller supplied unusable input (missing code,
// verifier, or client credentials) and the request never reached TikTok.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// RateLimitError is returned on HTTP 429. RetryAfter is seconds, 0 when the
// provider did not send a Retry-After header.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %d seconds", e.RetryAfter)
	}
	return "rate limit exceeded"
}

// TokenExpiredError is returned on HTTP 401 from authenticated endpoints.
// Callers recover by refreshing the access token and retrying once.
type TokenExpiredError struct{}

func (e *TokenExpiredError) Error() string {
	return "access token has expired"
}

// APIError covers any other non-2xx provider response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tiktok api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("tiktok api error %d: %s", e.StatusCode, e.Message)
}
