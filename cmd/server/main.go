package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/noticehub/notice-dispatch/internal/api"
	"github.com/noticehub/notice-dispatch/internal/broadcast"
	"github.com/noticehub/notice-dispatch/internal/config"
	"github.com/noticehub/notice-dispatch/internal/dispatcher"
	"github.com/noticehub/notice-dispatch/internal/metrics"
	"github.com/noticehub/notice-dispatch/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg := config.Load()

	// ---- core dependencies ----
	s := store.New(logger)

	reg := prometheus.NewRegistry()
	var bc *broadcast.Broadcaster
	m := metrics.New(reg,
		func() float64 { return float64(s.QueueDepth()) },
		func() float64 { return float64(bc.Count()) },
	)
	bc = broadcast.New(cfg.SubscriberBuffer, cfg.SubscriberRate, logger, m.EventsDropped.Inc)

	// ---- dispatcher ----
	// Context for the background loop; cancelled on shutdown signal.
	// An in-flight tick is allowed to finish.
	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()

	onDispatched, onExpired, onStale := m.DispatcherHooks()
	d := dispatcher.New(s, bc, cfg.DispatchInterval, logger, dispatcher.MetricHooks{
		OnDispatched: onDispatched,
		OnExpired:    onExpired,
		OnStale:      onStale,
	})
	go d.Run(dispatchCtx)

	// ---- HTTP server ----
	router := api.NewRouter(s, bc, cfg, reg, logger)
	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: cfg.ReadTimeout,
		// No WriteTimeout: the event-stream endpoints hold their
		// connections open; per-write deadlines are applied in the
		// stream handlers instead.
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests and close subscriber streams.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the dispatcher's periodic trigger.
	cancelDispatch()

	logger.Info("server stopped cleanly")
}
