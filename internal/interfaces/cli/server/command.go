package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"warden/internal/application/sessions"
	"warden/internal/domain/session"
	"warden/internal/infrastructure/auth"
	"warden/internal/infrastructure/config"
	"warden/internal/infrastructure/memstore"
	"warden/internal/infrastructure/metrics"
	"warden/internal/infrastructure/scheduler"
	"warden/internal/infrastructure/token"
	httpRouter "warden/internal/interfaces/http"
	"warden/internal/shared/goroutine"
	"warden/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the session service HTTP server with specified configuration.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("starting server", "environment", env)

	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	}

	log := logger.NewLogger()

	managerCfg := sessions.Config{
		AccessTokenTTL:     time.Duration(cfg.Auth.JWT.AccessExpMinutes) * time.Minute,
		SessionLifetime:    time.Duration(cfg.Auth.JWT.RefreshExpDays) * 24 * time.Hour,
		MaxSessionsPerUser: cfg.Auth.Session.MaxPerUser,
		SweepInterval:      time.Duration(cfg.Auth.Session.SweepIntervalMinutes) * time.Minute,
	}

	codec := auth.NewJWTService(cfg.Auth.JWT.Secret, managerCfg.AccessTokenTTL, session.DefaultClock)
	manager := sessions.NewManager(memstore.New(), codec, token.NewTokenGenerator(), managerCfg, session.DefaultClock, log)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	schedulerManager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := schedulerManager.RegisterSweepJob(sessions.NewSweepJob(manager, collector), managerCfg.SweepInterval); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}
	schedulerManager.Start()
	defer func() {
		if err := schedulerManager.Stop(); err != nil {
			logger.Error("failed to stop scheduler", "error", err)
		}
	}()

	router := httpRouter.NewRouter(manager, cfg, registry, log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	goroutine.SafeGo(log, "http-server", func() {
		logger.Info("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
