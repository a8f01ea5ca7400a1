package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Defi-Moses/tik-tok-metrics/internal/config"
	"github.com/Defi-Moses/tik-tok-metrics/internal/service"
)

type ingestRunner interface {
	Run(ctx context.Context) (*service.IngestSummary, error)
}

type jobLock interface {
	TryAcquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// CronHandler exposes the manual ingestion trigger used by hosted schedulers
// and operators. The redis lock keeps it from racing the in-process schedule.
type CronHandler struct {
	ingest ingestRunner
	lock   jobLock
}

func NewCronHandler(ingest ingestRunner, lock jobLock) *CronHandler {
	return &CronHandler{ingest: ingest, lock: lock}
}

func (h *CronHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Trigger)
	r.Post("/", h.Trigger)

	return r
}

func (h *CronHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	acquired, err := h.lock.TryAcquire(r.Context(), config.IngestLockTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to acquire ingest lock")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to acquire ingestion lock",
		})
		return
	}
	if !acquired {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "An ingestion run is already in progress",
		})
		return
	}
	defer func() {
		if err := h.lock.Release(context.WithoutCancel(r.Context())); err != nil {
			log.Error().Err(err).Msg("failed to release ingest lock")
		}
	}()

	summary, err := h.ingest.Run(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("ingestion run failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Ingestion complete",
		"totalAccounts":   summary.TotalAccounts,
		"processed":       summary.Processed,
		"errors":          summary.Errors,
		"errorsByAccount": summary.ErrorsByAccount,
	})
}
