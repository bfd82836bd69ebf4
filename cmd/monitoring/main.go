// The monitoring service is one aggregation replica. It owns a fixed
// partition of the measurement stream, deduplicates samples, closes hourly
// windows, and emits alerts and dashboard updates onto the push stream.
//
// Each replica consumes the sync stream under its own group so that every
// replica's device cache sees every lifecycle event.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"wattgrid/internal/monitoring/handler"
	"wattgrid/internal/monitoring/service"
	"wattgrid/internal/monitoring/store/checkpoint"
	"wattgrid/internal/monitoring/store/devicecache"
	"wattgrid/internal/monitoring/store/hourly"
	"wattgrid/internal/monitoring/store/measurement"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/kafka"
	"wattgrid/internal/platform/config"
	"wattgrid/internal/platform/httpserver"
	"wattgrid/internal/platform/logger"
	"wattgrid/internal/platform/postgres"
	"wattgrid/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("monitoring service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.MonitoringFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.New("monitoring").With("replica_id", cfg.ReplicaID)

	var (
		measurements measurement.Store
		hourlyStore  hourly.Store
		checkpoints  checkpoint.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db, measurement.Schema, hourly.Schema, checkpoint.Schema); err != nil {
			return err
		}
		measurements = measurement.NewPostgres(db)
		hourlyStore = hourly.NewPostgres(db)
		checkpoints = checkpoint.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, telemetry is in-memory")
		measurements = measurement.NewMemory()
		hourlyStore = hourly.NewMemory()
		checkpoints = checkpoint.NewMemory()
	}

	var cache devicecache.Store
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = devicecache.NewRedis(redisClient, cfg.ReplicaID)
	} else {
		log.Warn("no redis URL configured, device cache is in-memory")
		cache = devicecache.NewMemory()
	}

	if err := kafka.EnsureTopics(ctx, cfg.Broker.Seeds, log,
		kafka.TopicSpec{Name: bus.TopicSync, Partitions: 1},
		kafka.TopicSpec{Name: bus.TopicMeasurements, Partitions: int32(cfg.ReplicaCount)},
		kafka.TopicSpec{Name: bus.TopicPush, Partitions: 1},
	); err != nil {
		return err
	}

	publisher, err := kafka.NewPublisher(cfg.Broker.Seeds)
	if err != nil {
		return err
	}
	defer publisher.Close()

	svc := service.New(measurements, hourlyStore, cache, publisher, log)

	syncConsumer, err := kafka.NewGroupConsumer(cfg.Broker.Seeds,
		fmt.Sprintf("monitoring-%d", cfg.ReplicaID),
		[]string{bus.TopicSync}, bus.HandlerFunc(svc.HandleSync), log)
	if err != nil {
		return err
	}

	partition := int32(cfg.ReplicaID - 1)
	var consumerOpts []kafka.PartitionConsumerOption
	if next, ok, err := checkpoints.Load(ctx, bus.TopicMeasurements, partition); err != nil {
		return err
	} else if ok {
		log.Info("resuming measurement partition from checkpoint", "partition", partition, "offset", next)
		consumerOpts = append(consumerOpts, kafka.WithStartOffset(next))
	}

	// Checkpoint after each handled sample. A lost write only widens the
	// replay on the next restart; dedup absorbs the repeats.
	ingest := bus.HandlerFunc(func(ctx context.Context, msg *bus.Message) error {
		if err := svc.HandleMeasurement(ctx, msg); err != nil {
			return err
		}
		if err := checkpoints.Save(ctx, msg.Topic, msg.Partition, msg.Offset+1); err != nil {
			log.Warn("checkpoint save failed", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		return nil
	})

	ingestConsumer, err := kafka.NewPartitionConsumer(cfg.Broker.Seeds,
		bus.TopicMeasurements, partition, ingest, log, consumerOpts...)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(r)
	srv := httpserver.New(cfg.Addr, r)

	log.Info("monitoring replica starting", "addr", cfg.Addr, "partition", cfg.ReplicaID-1)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return syncConsumer.Run(ctx) })
	g.Go(func() error { return ingestConsumer.Run(ctx) })
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
