package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/moneymagic/internal/config"
	"github.com/dvloznov/moneymagic/internal/export"
	"github.com/dvloznov/moneymagic/internal/export/inmemory"
	"github.com/dvloznov/moneymagic/internal/logger"
	"github.com/dvloznov/moneymagic/internal/store/filestore"
)

// The worker backfills the warehouse: it enqueues an export job for every
// dataset in a file store and exits once all of them have finished.
func main() {
	// Initialize logger
	log := logger.New()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	storeFile := flag.String("store-file", cfg.Store.File, "Path to the dataset store JSON file")
	workers := flag.Int("workers", cfg.Export.Workers, "Number of concurrent export workers")
	flag.Parse()

	if !cfg.Export.Enabled() {
		log.Fatal().Msg("BQ_PROJECT is required")
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := filestore.Open(*storeFile)
	if err != nil {
		log.Fatal().Err(err).Str("store_file", *storeFile).Msg("Failed to open dataset store")
	}

	sink, err := export.NewBigQuerySink(ctx, cfg.Export.Project, cfg.Export.Dataset, cfg.Export.Table)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery sink")
	}
	defer sink.Close()

	ids := st.IDs()
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(len(ids)+1, *workers, jobStore)
	exporter := export.NewExporter(st, sink, log)

	// Start consuming jobs
	if err := jobQueue.Start(ctx, exporter.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start export workers")
	}

	for _, id := range ids {
		if err := jobQueue.PublishExport(ctx, &export.Job{DatasetID: id}); err != nil {
			log.Fatal().Err(err).Str("dataset_id", id).Msg("Failed to enqueue export")
		}
	}
	log.Info().Int("datasets", len(ids)).Str("table", sink.Table()).Msg("Backfill started")

	// Wait for all jobs or an interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-quit:
			log.Warn().Msg("Interrupted, stopping backfill")
			break wait
		case <-ticker.C:
			if finished(ctx, jobStore, len(ids)) {
				break wait
			}
		}
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	failedJobs, _ := jobStore.ListJobs(context.Background(), export.JobFilter{Status: export.JobStatusFailed})
	for _, job := range failedJobs {
		log.Error().Str("dataset_id", job.DatasetID).Str("error", job.Error).Msg("Export failed")
	}
	log.Info().Int("datasets", len(ids)).Int("failed", len(failedJobs)).Msg("Backfill finished")

	if len(failedJobs) > 0 {
		os.Exit(1)
	}
}

// finished reports whether every one of want jobs reached a terminal state.
func finished(ctx context.Context, jobStore export.JobStore, want int) bool {
	jobs, err := jobStore.ListJobs(ctx, export.JobFilter{})
	if err != nil || len(jobs) < want {
		return false
	}
	for _, job := range jobs {
		if job.Status != export.JobStatusCompleted && job.Status != export.JobStatusFailed {
			return false
		}
	}
	return true
}
