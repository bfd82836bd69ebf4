// The devices service is the authoritative registry of devices and
// user-device assignments. It publishes device lifecycle events and keeps a
// user-cache projection so assignments can be validated without calling the
// users service.
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

	"wattgrid/internal/devices/handler"
	"wattgrid/internal/devices/service"
	"wattgrid/internal/devices/store/assignment"
	"wattgrid/internal/devices/store/device"
	"wattgrid/internal/devices/store/usercache"
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
		slog.Error("devices service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.DevicesFromEnv()
	log := logger.New("devices")

	var (
		devices     device.Store
		assignments assignment.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db, device.Schema, assignment.Schema); err != nil {
			return err
		}
		devices = device.NewPostgres(db)
		assignments = assignment.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, devices are in-memory")
		devices = device.NewMemory()
		assignments = assignment.NewMemory()
	}

	var users usercache.Store
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		users = usercache.NewRedis(redisClient)
	} else {
		log.Warn("no redis URL configured, user cache is in-memory")
		users = usercache.NewMemory()
	}

	if err := kafka.EnsureTopics(ctx, cfg.Broker.Seeds, log,
		kafka.TopicSpec{Name: bus.TopicSync, Partitions: 1},
	); err != nil {
		return err
	}

	publisher, err := kafka.NewPublisher(cfg.Broker.Seeds)
	if err != nil {
		return err
	}
	defer publisher.Close()

	svc := service.New(devices, assignments, users, publisher, log)

	consumer, err := kafka.NewGroupConsumer(cfg.Broker.Seeds, "devices",
		[]string{bus.TopicSync}, bus.HandlerFunc(svc.HandleSync), log)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(r)
	srv := httpserver.New(cfg.Addr, r)

	log.Info("devices service starting", "addr", cfg.Addr)

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
