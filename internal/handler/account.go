package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/Defi-Moses/tik-tok-metrics/internal/errors"
	"github.com/Defi-Moses/tik-tok-metrics/internal/service"
)

const defaultSnapshotDays = 30

type AccountHandler struct {
	accountService *service.AccountService
	statsService   *service.StatsService
}

func NewAccountHandler(accountService *service.AccountService, statsService *service.StatsService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		statsService:   statsService,
	}
}

func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Delete("/", h.Disconnect)
	r.Get("/{id}/snapshots", h.Snapshots)
	r.Get("/{id}/stats", h.Stats)

	return r
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list accounts")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
	})
}

func (h *AccountHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, apperrors.MissingRequired("id"))
		return
	}

	if err := h.accountService.Disconnect(r.Context(), id); err != nil {
		if apperrors.GetCode(err) != apperrors.ErrCodeNotFound {
			log.Error().Err(err).Str("accountId", id).Msg("failed to disconnect account")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": service.CodeAccountDisconnected,
	})
}

func (h *AccountHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := r.URL.Query()

	// Either an explicit start/end window or a trailing number of days.
	if query.Get("start") != "" || query.Get("end") != "" {
		start, err := time.Parse("2006-01-02", query.Get("start"))
		if err != nil {
			writeError(w, apperrors.Validation("start must be formatted as YYYY-MM-DD"))
			return
		}
		end, err := time.Parse("2006-01-02", query.Get("end"))
		if err != nil {
			writeError(w, apperrors.Validation("end must be formatted as YYYY-MM-DD"))
			return
		}
		if end.Before(start) {
			writeError(w, apperrors.Validation("end must not be before start"))
			return
		}

		snapshots, err := h.accountService.SnapshotsInRange(r.Context(), id, start, end)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
		return
	}

	days := defaultSnapshotDays
	if raw := query.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			writeError(w, apperrors.Validation("days must be between 1 and 365"))
			return
		}
		days = parsed
	}

	snapshots, err := h.accountService.Snapshots(r.Context(), id, days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

func (h *AccountHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.accountService.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	delta, err := h.statsService.WeekDelta(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientHistory) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "insufficient_history",
			})
			return
		}
		log.Error().Err(err).Str("accountId", id).Msg("failed to compute stats")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, delta)
}
