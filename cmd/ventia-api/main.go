package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ventia/ventia/internal/api"
	"github.com/ventia/ventia/internal/auth"
	"github.com/ventia/ventia/internal/config"
	conversationpostgres "github.com/ventia/ventia/internal/conversation/postgres"
	"github.com/ventia/ventia/internal/engine"
	"github.com/ventia/ventia/internal/observability"
	salespostgres "github.com/ventia/ventia/internal/sales/postgres"
)

func main() {
	cfg, err := config.LoadFromEnv("ventia-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	storeDB, err := salespostgres.Open(context.Background(), salespostgres.DBConfig{
		DSN:             cfg.Store.DSN,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxIdleTime: cfg.Store.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open store db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = storeDB.Close() }()

	repo := salespostgres.NewRepository(storeDB)
	conversationLog := conversationpostgres.NewLog(storeDB)
	chatEngine := engine.New(repo, repo, conversationLog, cfg.Engine, logger)

	deps := api.Dependencies{
		Logger:        logger,
		Engine:        chatEngine,
		Stats:         chatEngine.Stats(),
		Conversations: conversationLog,
		HistoryLimit:  cfg.Engine.HistoryLimit,
		Readiness: api.CombineReadinessChecks(
			repo.HealthCheck,
			api.CheckStoreDSN(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
