// The users service is the authoritative registry of user profiles. It is
// the deciding step of the provisioning saga: USER_CREATED either becomes a
// profile and a USER_ID_ASSIGNED reply, or a USER_CREATE_FAILED rollback.
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

	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/kafka"
	"wattgrid/internal/platform/config"
	"wattgrid/internal/platform/httpserver"
	"wattgrid/internal/platform/logger"
	"wattgrid/internal/platform/postgres"
	"wattgrid/internal/users/handler"
	"wattgrid/internal/users/service"
	"wattgrid/internal/users/store/profile"
)

func main() {
	if err := run(); err != nil {
		slog.Error("users service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.UsersFromEnv()
	log := logger.New("users")

	var profiles profile.Store
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db, profile.Schema); err != nil {
			return err
		}
		profiles = profile.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, profiles are in-memory")
		profiles = profile.NewMemory()
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

	svc := service.New(profiles, publisher, log)

	consumer, err := kafka.NewGroupConsumer(cfg.Broker.Seeds, "users",
		[]string{bus.TopicSync}, bus.HandlerFunc(svc.HandleSync), log)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(r)
	srv := httpserver.New(cfg.Addr, r)

	log.Info("users service starting", "addr", cfg.Addr)

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
