package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/Defi-Moses/tik-tok-metrics/internal/config"
	"github.com/Defi-Moses/tik-tok-metrics/internal/service"
)

type ingestRunner interface {
	Run(ctx context.Context) (*service.IngestSummary, error)
}

type runLock interface {
	TryAcquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// IngestScheduler runs the ingestion job on a cron schedule. It shares the
// redis run lock with the manual /api/cron trigger so only one run ever
// executes at a time.
type IngestScheduler struct {
	cron     *cron.Cron
	ingest   ingestRunner
	lock     runLock
	schedule string
}

func NewIngestScheduler(ingest ingestRunner, lock runLock, schedule string) *IngestScheduler {
	return &IngestScheduler{
		cron:     cron.New(),
		ingest:   ingest,
		lock:     lock,
		schedule: schedule,
	}
}

func (s *IngestScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("ingest scheduler started")
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *IngestScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("ingest scheduler stopped")
}

func (s *IngestScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), config.IngestLockTTL)
	defer cancel()

	acquired, err := s.lock.TryAcquire(ctx, config.IngestLockTTL)
	if err != nil {
		log.Error().Err(err).Msg("scheduled ingestion could not acquire lock")
		return
	}
	if !acquired {
		log.Warn().Msg("scheduled ingestion skipped, another run holds the lock")
		return
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("failed to release ingest lock")
		}
	}()

	summary, err := s.ingest.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled ingestion failed")
		return
	}

	log.Info().
		Int("processed", summary.Processed).
		Int("errors", summary.Errors).
		Msg("scheduled ingestion finished")
}
