// Command api runs the StudentShift HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"StudentShift-backend/internal/auth"
	"StudentShift-backend/internal/config"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/events"
	"StudentShift-backend/internal/logging"
	"StudentShift-backend/internal/scheduler"
	"StudentShift-backend/internal/server"
	"StudentShift-backend/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OtelEndpoint, cfg.ServiceName)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	dbConfig, err := database.ConfigFrom(cfg)
	if err != nil {
		log.Fatalf("database config: %v", err)
	}
	db, err := database.NewDBInstance(dbConfig)
	if err != nil {
		log.Fatalf("database failed to initialize: %v", err)
	}
	defer db.Close()
	slog.Info("postgres connected")

	var (
		blacklist auth.JwtBlacklistStore
		publisher events.Publisher
	)
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		blacklist = auth.NewRedisBlacklistStore(rdb)
		publisher = events.NewRedisPublisher(rdb)
		slog.Info("redis connected")
	} else {
		mem := auth.NewInMemoryBlacklistStore()
		mem.StartCleanup(ctx, 10*time.Minute)
		blacklist = mem
		slog.Warn("REDIS_URL not set, using in-memory token blacklist and dropping events")
	}

	s := server.NewServer(cfg, db, blacklist, publisher)

	reconcile := scheduler.New(s.Ledger, cfg.ReconcileSchedule)
	if err := reconcile.Start(ctx); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	srv := s.HTTPServer()
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "err", err)
	}
	reconcile.Stop()
	cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown", "err", err)
	}
	slog.Info("stopped")
}
