package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Defi-Moses/tik-tok-metrics/internal/config"
	"github.com/Defi-Moses/tik-tok-metrics/internal/database"
	"github.com/Defi-Moses/tik-tok-metrics/internal/handler"
	"github.com/Defi-Moses/tik-tok-metrics/internal/jobs"
	"github.com/Defi-Moses/tik-tok-metrics/internal/middleware"
	"github.com/Defi-Moses/tik-tok-metrics/internal/redis"
	"github.com/Defi-Moses/tik-tok-metrics/internal/repository"
	"github.com/Defi-Moses/tik-tok-metrics/internal/service"
	"github.com/Defi-Moses/tik-tok-metrics/internal/tiktok"
	"github.com/Defi-Moses/tik-tok-metrics/internal/vault"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != "" || strings.HasPrefix(cfg.AppBaseURL, "https://")
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	accountRepo := repository.NewAccountRepository(db.DB)
	snapshotRepo := repository.NewSnapshotRepository(db.DB)

	tokenVault := vault.New(cfg.TokenSigningSecret, config.TokenSealTTL)
	handshakeVault := vault.New(cfg.TokenSigningSecret, config.HandshakeTTL)

	tiktokClient := tiktok.NewClient(tiktok.Config{
		ClientKey:    cfg.TikTokClientKey,
		ClientSecret: cfg.TikTokClientSecret,
		RedirectURI:  cfg.RedirectURI(),
	})

	oauthService := service.NewOAuthService(tiktokClient, tokenVault, accountRepo)
	ingestService := service.NewIngestService(accountRepo, snapshotRepo, tiktokClient, tokenVault)
	accountService := service.NewAccountService(db, accountRepo, snapshotRepo)
	statsService := service.NewStatsService(snapshotRepo)

	jobLock := redis.NewJobLock(redisClient)
	cronAuthMiddleware := middleware.NewCronAuthMiddleware(cfg.CronSecret)

	oauthHandler := handler.NewOAuthHandler(oauthService, handshakeVault, isProduction)
	cronHandler := handler.NewCronHandler(ingestService, jobLock)
	accountHandler := handler.NewAccountHandler(accountService, statsService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", oauthHandler.Routes())
		r.Mount("/accounts", accountHandler.Routes())

		r.Route("/cron", func(r chi.Router) {
			r.Use(cronAuthMiddleware.Handler)
			r.Mount("/", cronHandler.Routes())
		})
	})

	scheduler := jobs.NewIngestScheduler(ingestService, jobLock, cfg.IngestSchedule)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.IngestSchedule).Msg("failed to start ingest scheduler")
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
