package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/academe-sis/academe/internal/app"
	"github.com/academe-sis/academe/internal/auth"
	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/catalog"
	"github.com/academe-sis/academe/internal/enrollment"
	"github.com/academe-sis/academe/internal/observability"
	"github.com/academe-sis/academe/internal/platform/cache"
	"github.com/academe-sis/academe/internal/platform/db"
	"github.com/academe-sis/academe/internal/profiles"
	"github.com/academe-sis/academe/internal/roles"
	"github.com/academe-sis/academe/internal/shared"
	"github.com/academe-sis/academe/internal/users"
	"github.com/academe-sis/academe/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "academe_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	// The registry is the closed catalog of roles. A seed referencing an
	// unknown permission codename aborts startup.
	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)
	registry, err := rolesService.LoadRegistry(ctx)
	if err != nil {
		logger.Error("load role registry", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	authzMiddleware := authz.Middleware{Logger: logger, Metrics: metrics}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	profilesRepo := profiles.NewRepository(dbpool)
	profilesService := profiles.NewService(profilesRepo, registry)
	profilesHandler := profiles.NewHandler(logger, profilesService, authzMiddleware)

	auditLogger := shared.NewAuditLogger(dbpool)
	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	enrollmentRepo := enrollment.NewRepository(dbpool)
	enrollmentService := enrollment.NewService(enrollmentRepo, auditLogger, jobClient, metrics, logger)
	enrollmentHandler := enrollment.NewHandler(logger, enrollmentService, authzMiddleware)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, authzMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, authzMiddleware)

	rolesHandler := roles.NewHandler(registry, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Actors:            profilesService,
		AuthHandler:       authHandler,
		EnrollmentHandler: enrollmentHandler,
		CatalogHandler:    catalogHandler,
		RolesHandler:      rolesHandler,
		UsersHandler:      usersHandler,
		ProfilesHandler:   profilesHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
