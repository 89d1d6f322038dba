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
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shaneHighPeek/beesold-mission-control/internal/config"
	"github.com/shaneHighPeek/beesold-mission-control/internal/database"
	"github.com/shaneHighPeek/beesold-mission-control/internal/drive"
	"github.com/shaneHighPeek/beesold-mission-control/internal/handler"
	"github.com/shaneHighPeek/beesold-mission-control/internal/jobs"
	"github.com/shaneHighPeek/beesold-mission-control/internal/lifecycle"
	"github.com/shaneHighPeek/beesold-mission-control/internal/middleware"
	"github.com/shaneHighPeek/beesold-mission-control/internal/notify"
	redisclient "github.com/shaneHighPeek/beesold-mission-control/internal/redis"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository/memory"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository/postgres"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
	"github.com/shaneHighPeek/beesold-mission-control/internal/service"
	"github.com/shaneHighPeek/beesold-mission-control/internal/token"
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

	var store *repository.Store
	if cfg.UsesPostgres() {
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

		store = postgres.NewStore(db.DB)
	} else {
		log.Warn().Msg("using in-memory persistence")
		store = memory.NewStore()
	}

	var rawRedis *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err := redisclient.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
		rawRedis = redisClient.Client
	} else {
		log.Warn().Msg("redis not configured, portal rate limiting disabled")
	}

	engine := schema.NewEngine(schema.IntakeSteps())
	codec := token.NewCodec(cfg.MagicLinkSecret, cfg.PortalSessionSecret)
	machine := lifecycle.NewMachine(store, log.Logger)
	mailer := notify.NewLogMailer(store.Emails, log.Logger)
	fileRouter := drive.NewStubRouter(log.Logger)

	authService := service.NewAuthService(store, codec, machine, cfg.MagicLinkTTL(), cfg.PortalSessionTTL())
	intakeService := service.NewIntakeService(store, engine, machine, fileRouter)
	onboardingService := service.NewOnboardingService(store, engine, authService, mailer, fileRouter)
	pipelineService := service.NewPipelineService(store, machine)

	rateLimitMiddleware := middleware.NewPortalRateLimitMiddleware(rawRedis, cfg.PortalRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodyBytes)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	portalHandler := handler.NewPortalHandler(authService, intakeService, onboardingService, cfg, isProduction, rateLimitMiddleware)
	operatorHandler := handler.NewOperatorHandler(store, machine, onboardingService, intakeService, pipelineService, cfg.OperatorAPIToken)
	webhookHandler := handler.NewWebhookHandler(onboardingService, cfg.WebhookSecret)

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

	r.Route("/portal", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Mount("/", portalHandler.Routes())
	})

	r.Route("/operator", func(r chi.Router) {
		r.Mount("/", operatorHandler.Routes())
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Mount("/", webhookHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(store.MagicLinks, store.AuthSessions, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

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
