package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"payflow/internal/config"
	"payflow/internal/daemon"
	"payflow/internal/dedup"
	"payflow/internal/evidence"
	"payflow/internal/gateway"
	"payflow/internal/ledger"
	"payflow/internal/logging"
	"payflow/internal/notify"
	"payflow/internal/sheets"
	"payflow/internal/store"
	"payflow/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	client, err := sheets.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("connect sheets backend", logging.Error(err))
		return
	}

	requests := store.New(client, cfg.Store.RequestsTable)
	if err := requests.Init(ctx); err != nil {
		logger.Error("init requests table", logging.Error(err))
		return
	}

	deliveries, err := dedup.Open(cfg.Dedup.Dir)
	if err != nil {
		logger.Error("open dedup store", logging.Error(err))
		return
	}

	engine := workflow.New(
		workflow.Config{
			ApproverRole: cfg.Approvals.ApproverRole,
			CodePrefix:   cfg.Store.CodePrefix,
			MaxEvidence:  cfg.Approvals.MaxEvidence,
		},
		requests,
		ledger.NewPoster(client),
		notify.NewAnnouncer(cfg),
		evidence.NewHTTPVerifier(time.Duration(cfg.Notifications.RequestTimeout)*time.Second),
		logger,
	)

	srv := gateway.New(gateway.Options{
		Bind:  cfg.Gateway.Bind,
		Token: cfg.Gateway.Token,
	}, engine, deliveries, logger)

	d, err := daemon.New(cfg, srv, deliveries, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("payflowd shutting down", slog.String("reason", "signal"))
}
