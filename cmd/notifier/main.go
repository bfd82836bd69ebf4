// The notifier bridges the push stream to WebSocket dashboards: alerts go
// to the addressed user's connections, hourly updates are broadcast.
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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"wattgrid/internal/notifier/handler"
	"wattgrid/internal/notifier/hub"
	"wattgrid/internal/notifier/service"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/kafka"
	"wattgrid/internal/platform/config"
	"wattgrid/internal/platform/httpserver"
	"wattgrid/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("notifier service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NotifierFromEnv()
	log := logger.New("notifier")

	if err := kafka.EnsureTopics(ctx, cfg.Broker.Seeds, log,
		kafka.TopicSpec{Name: bus.TopicPush, Partitions: 1},
	); err != nil {
		return err
	}

	h := hub.New(log)
	svc := service.New(h, log)

	consumer, err := kafka.NewGroupConsumer(cfg.Broker.Seeds, "notifier",
		[]string{bus.TopicPush}, bus.HandlerFunc(svc.HandlePush), log)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	handler.New(h, log).Register(r)
	srv := httpserver.New(cfg.Addr, r)

	log.Info("notifier service starting", "addr", cfg.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Run(ctx) })
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
