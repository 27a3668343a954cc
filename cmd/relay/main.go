package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/config"
	"github.com/bookway/stocktake/internal/scheduler"
	"github.com/bookway/stocktake/internal/server/handlers"
	"github.com/bookway/stocktake/internal/server/hub"
	"github.com/bookway/stocktake/internal/server/router"
	"github.com/bookway/stocktake/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	sessionHub := hub.New(baseLogger.Named("hub"))
	sessionHandler := handlers.NewSessionHandler(sessionHub, baseLogger.Named("handlers.session"))
	engine := router.New(sessionHandler, baseLogger.Named("router"))

	// Sessions are held in memory only; the sweep keeps the map from growing
	// across days of use.
	sched := scheduler.NewScheduler(cfg.Cleanup, sessionHub, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the events endpoint holds its response open for
		// the lifetime of the subscription.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("relay starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
