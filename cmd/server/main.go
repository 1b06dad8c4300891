package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stckr/qr-server-go/internal/config"
	"github.com/stckr/qr-server-go/internal/database"
	"github.com/stckr/qr-server-go/internal/handler"
	"github.com/stckr/qr-server-go/internal/jobs"
	"github.com/stckr/qr-server-go/internal/middleware"
	"github.com/stckr/qr-server-go/internal/redis"
	"github.com/stckr/qr-server-go/internal/repository"
	"github.com/stckr/qr-server-go/internal/scan"
	"github.com/stckr/qr-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
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

	codeRepo := repository.NewCodeRepository(db)
	claimRepo := repository.NewClaimRepository(db.DB)
	itemRepo := repository.NewItemRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	scanEventRepo := repository.NewScanEventRepository(db.DB)

	recorder := scan.NewRecorder(scanEventRepo, config.ScanQueueSize)
	defer recorder.Close()

	registryService := service.NewRegistryService(codeRepo)
	claimService := service.NewClaimService(claimRepo, codeRepo, itemRepo)
	resolutionService := service.NewResolutionService(
		codeRepo, claimRepo, itemRepo, recorder, cfg.AppBaseURL,
	)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	authMiddleware := middleware.NewAuthMiddleware(userRepo)
	adminMiddleware := middleware.NewAdminTokenMiddleware(cfg.AdminToken)
	userRateLimit := middleware.NewUserRateLimitMiddleware(rateLimiter, cfg.ClaimRateLimitPerMin)
	resolveRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.ResolveRateLimitPerMin, time.Minute, "resolve",
	)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	qrHandler := handler.NewQRHandler(resolutionService, claimService)
	adminHandler := handler.NewAdminHandler(registryService, adminMiddleware.Handler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	// Printed-sticker entry point: anonymous, IP rate limited.
	r.Group(func(r chi.Router) {
		r.Use(resolveRateLimit.Handler)
		r.Get("/qr/{code}", qrHandler.Landing)
	})

	r.Route("/v1/qr", func(r chi.Router) {
		// Resolve accepts anonymous callers; identity is optional.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Optional)
			r.Use(resolveRateLimit.Handler)
			r.Post("/resolve", qrHandler.Resolve)
		})

		// Claim mutations require identity.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.Use(userRateLimit.Handler)
			r.Mount("/", qrHandler.ClaimRoutes())
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Mount("/", adminHandler.Routes())
	})

	retentionJob := jobs.NewRetentionJob(
		scanEventRepo, cfg.ScanRetention(), config.RetentionJobInterval,
	)
	retentionJob.Start()
	defer retentionJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
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
