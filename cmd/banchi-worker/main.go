package main

import (
	"context"
	"errors"
	"os"
	"time"

	"banchi/internal/amqp"
	"banchi/internal/cli"
	"banchi/internal/config"
	applog "banchi/internal/log"
	gsheet "banchi/internal/sheets/google"
	"banchi/internal/worker"
)

const statsInterval = 10 * time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting banchi-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, stop := cli.SignalContext()
	defer stop()

	sheetsClient, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(sheetsClient, logger.Logger)

	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				exported, dropped := exporter.Stats()
				logger.Info("Export worker stats", "exported", exported, "dropped", dropped)
			}
		}
	}()

	err = amqpClient.ConsumeLedgerEvents(ctx, exporter.HandleLedgerEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	exported, dropped := exporter.Stats()
	logger.Info("Worker shutdown complete", "exported", exported, "dropped", dropped)
}
