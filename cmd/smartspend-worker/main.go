package main

import (
	"context"
	"errors"
	"os"
	"time"

	"smartspend/internal/amqp"
	"smartspend/internal/backend"
	"smartspend/internal/cli"
	applog "smartspend/internal/log"
	"smartspend/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.DefaultConfig()).Error("Failed to load .env file", "error", err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting smartspend-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	target := backend.BackendType(cfg.SyncTarget)
	remote, cleanup, err := backend.NewFactory(logger.Logger).CreateSyncTarget(ctx, target, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize sync target", "error", err, "target", target)
		os.Exit(1)
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				logger.Error("Sync target cleanup failed", "error", err)
			}
		}()
	}

	syncWorker := worker.NewSyncWorker(repo, remote, cfg.SyncBatchSize)

	// rows written while the worker was down
	if n, err := syncWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	} else {
		logger.Info("Startup sync complete", "synced", n)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			err := client.ConsumeTransactionSync(ctx, syncWorker.HandleSyncMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
				stop()
			}
		}()
	} else {
		logger.Info("AMQP_URL not set, relying on periodic sync only")
	}

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopped", applog.FieldOperation, applog.OpShutdown)
			return
		case <-ticker.C:
			if n, err := syncWorker.ProcessPending(ctx); err != nil {
				logger.Error("Periodic sync failed", "error", err)
			} else if n > 0 {
				logger.Info("Periodic sync complete", "synced", n)
			}
		}
	}
}
