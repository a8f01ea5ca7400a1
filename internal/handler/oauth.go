package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Defi-Moses/tik-tok-metrics/internal/config"
	"github.com/Defi-Moses/tik-tok-metrics/internal/middleware"
	"github.com/Defi-Moses/tik-tok-metrics/internal/service"
	"github.com/Defi-Moses/tik-tok-metrics/internal/vault"
)

// OAuthHandler owns the browser-facing half of the connect flow. The state
// and PKCE verifier ride in sealed short-lived cookies so the callback can be
// validated without any server-side session.
type OAuthHandler struct {
	oauthService   *service.OAuthService
	handshakeVault *vault.Vault
	isProduction   bool
}

func NewOAuthHandler(oauthService *service.OAuthService, handshakeVault *vault.Vault, isProduction bool) *OAuthHandler {
	return &OAuthHandler{
		oauthService:   oauthService,
		handshakeVault: handshakeVault,
		isProduction:   isProduction,
	}
}

func (h *OAuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/tiktok/start", h.Start)
	r.Get("/tiktok/callback", h.Callback)
	r.Post("/tiktok/callback", h.Callback)

	return r
}

func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	handshake, authURL, err := h.oauthService.Begin()
	if err != nil {
		log.Error().Err(err).Msg("failed to initiate oauth handshake")
		h.redirectConnect(w, r, service.CodeUnexpectedError)
		return
	}

	sealedState, err := h.handshakeVault.Seal(handshake.State)
	if err != nil {
		log.Error().Err(err).Msg("failed to seal oauth state")
		h.redirectConnect(w, r, service.CodeUnexpectedError)
		return
	}
	sealedVerifier, err := h.handshakeVault.Seal(handshake.CodeVerifier)
	if err != nil {
		log.Error().Err(err).Msg("failed to seal code verifier")
		h.redirectConnect(w, r, service.CodeUnexpectedError)
		return
	}

	middleware.SetHandshakeCookie(w, middleware.OAuthStateCookie, sealedState, config.HandshakeTTL, h.isProduction)
	middleware.SetHandshakeCookie(w, middleware.OAuthVerifierCookie, sealedVerifier, config.HandshakeTTL, h.isProduction)

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil && len(r.PostForm) > 0 {
			values = r.PostForm
		}
	}

	params := service.CallbackParams{
		Code:             values.Get("code"),
		State:            values.Get("state"),
		Error:            values.Get("error"),
		ErrorDescription: values.Get("error_description"),
		HasParams:        len(values) > 0,
	}

	handshake := h.readHandshake(r)

	// Handshake cookies are single-use regardless of outcome.
	middleware.ClearHandshakeCookie(w, middleware.OAuthStateCookie)
	middleware.ClearHandshakeCookie(w, middleware.OAuthVerifierCookie)

	code := h.oauthService.Complete(r.Context(), params, handshake)
	h.redirectConnect(w, r, code)
}

// readHandshake recovers the state and verifier from the sealed cookies.
// Missing, tampered or expired cookies all come back nil and fail state
// validation downstream.
func (h *OAuthHandler) readHandshake(r *http.Request) *service.Handshake {
	stateCookie, err := r.Cookie(middleware.OAuthStateCookie)
	if err != nil || stateCookie.Value == "" {
		return nil
	}
	verifierCookie, err := r.Cookie(middleware.OAuthVerifierCookie)
	if err != nil || verifierCookie.Value == "" {
		return nil
	}

	state, err := h.handshakeVault.Open(stateCookie.Value)
	if err != nil {
		return nil
	}
	verifier, err := h.handshakeVault.Open(verifierCookie.Value)
	if err != nil {
		return nil
	}

	return &service.Handshake{State: state, CodeVerifier: verifier}
}

func (h *OAuthHandler) redirectConnect(w http.ResponseWriter, r *http.Request, code service.ConnectCode) {
	param := "error"
	if code.IsSuccess() {
		param = "success"
	}
	http.Redirect(w, r, "/connect?"+param+"="+url.QueryEscape(string(code)), http.StatusTemporaryRedirect)
}
