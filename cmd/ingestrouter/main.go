// The ingest router moves raw sensor samples onto the partitioned
// measurement topic. Partition choice is a pure function of the device id,
// so every sample for a device lands on the same aggregation replica.
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

	"wattgrid/internal/ingestrouter"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/kafka"
	"wattgrid/internal/platform/config"
	"wattgrid/internal/platform/httpserver"
	"wattgrid/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("ingest router exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.RouterFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.New("ingestrouter")

	if err := kafka.EnsureTopics(ctx, cfg.Broker.Seeds, log,
		kafka.TopicSpec{Name: bus.TopicRawMeasurements, Partitions: 1},
		kafka.TopicSpec{Name: bus.TopicMeasurements, Partitions: int32(cfg.ReplicaCount)},
	); err != nil {
		return err
	}

	publisher, err := kafka.NewPublisher(cfg.Broker.Seeds, kafka.WithManualPartitions())
	if err != nil {
		return err
	}
	defer publisher.Close()

	router := ingestrouter.NewRouter(publisher, cfg.ReplicaCount, log)

	consumer, err := kafka.NewGroupConsumer(cfg.Broker.Seeds, "ingestrouter",
		[]string{bus.TopicRawMeasurements}, bus.HandlerFunc(router.HandleRaw), log)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	srv := httpserver.New(cfg.Addr, r)

	log.Info("ingest router starting", "addr", cfg.Addr, "replica_count", cfg.ReplicaCount)

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
