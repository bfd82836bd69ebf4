// The identity service owns credentials and tokens. It starts the user
// provisioning saga on registration and finishes or compensates it from the
// sync stream.
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

	"wattgrid/internal/identity/handler"
	"wattgrid/internal/identity/service"
	"wattgrid/internal/identity/store/credential"
	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/kafka"
	"wattgrid/internal/platform/config"
	"wattgrid/internal/platform/httpserver"
	"wattgrid/internal/platform/logger"
	"wattgrid/internal/platform/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("identity service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.IdentityFromEnv()
	log := logger.New("identity")

	var creds credential.Store
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db, credential.Schema); err != nil {
			return err
		}
		creds = credential.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, credentials are in-memory")
		creds = credential.NewMemory()
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

	svc := service.New(creds, publisher, log, cfg.JWTSigningKey, cfg.TokenTTL)

	consumer, err := kafka.NewGroupConsumer(cfg.Broker.Seeds, "identity",
		[]string{bus.TopicSync}, bus.HandlerFunc(svc.HandleSync), log)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(r)
	srv := httpserver.New(cfg.Addr, r)

	log.Info("identity service starting", "addr", cfg.Addr)

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
