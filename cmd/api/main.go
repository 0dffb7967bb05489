package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/moneymagic/internal/api"
	"github.com/dvloznov/moneymagic/internal/api/handlers"
	"github.com/dvloznov/moneymagic/internal/coach"
	"github.com/dvloznov/moneymagic/internal/config"
	"github.com/dvloznov/moneymagic/internal/datasets"
	"github.com/dvloznov/moneymagic/internal/export"
	exportmem "github.com/dvloznov/moneymagic/internal/export/inmemory"
	"github.com/dvloznov/moneymagic/internal/logger"
	"github.com/dvloznov/moneymagic/internal/store"
	"github.com/dvloznov/moneymagic/internal/store/filestore"
	"github.com/dvloznov/moneymagic/internal/store/gcsstore"
	"github.com/dvloznov/moneymagic/internal/store/inmemory"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv(config.EnvConfigPath), "Path to YAML config file (or set "+config.EnvConfigPath+")")
		port       = flag.String("port", "", "HTTP server port (overrides config and PORT)")
	)
	flag.Parse()

	bootLog := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid config")
	}

	// Initialize logger
	log, err := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to create logger")
	}

	ctx := context.Background()

	// Initialize dataset store
	datasetStore, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open dataset store")
	}
	defer closeStore()
	log.Info().Str("backend", cfg.Store.Backend).Msg("Dataset store ready")

	// Initialize coach
	var advisor coach.Advisor
	if cfg.Coach.GeminiAPIKey != "" {
		gemini, err := coach.NewGeminiAdvisor(ctx, cfg.Coach.GeminiAPIKey, cfg.Coach.GeminiModel)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini unavailable - coach will use rule-based answers")
		} else {
			advisor = gemini
			log.Info().Str("model", gemini.Model()).Msg("Gemini coach enabled")
		}
	} else {
		log.Warn().Msg("No GEMINI_API_KEY configured - coach will use rule-based answers")
	}
	responder := coach.NewResponder(advisor, cfg.Coach.Timeout, log)

	var opts []datasets.Option
	var jobsHandler *handlers.JobsHandler

	// Initialize export infrastructure
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var jobQueue *exportmem.Queue
	if cfg.Export.Enabled() {
		sink, err := export.NewBigQuerySink(ctx, cfg.Export.Project, cfg.Export.Dataset, cfg.Export.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery sink")
		}
		defer sink.Close()

		jobStore := exportmem.NewStore()
		jobQueue = exportmem.NewQueue(100, cfg.Export.Workers, jobStore)
		exporter := export.NewExporter(datasetStore, sink, log)

		// Start job consumer in background
		go func() {
			log.Info().Str("table", sink.Table()).Msg("Starting export workers")
			if err := jobQueue.Start(workerCtx, exporter.Handle); err != nil {
				log.Error().Err(err).Msg("Export workers stopped with error")
			}
		}()

		opts = append(opts, datasets.WithNotifier(export.NewNotifier(jobQueue, log)))
		jobsHandler = handlers.NewJobsHandler(jobStore, log)
	} else {
		log.Info().Msg("No BQ_PROJECT configured - warehouse export disabled")
	}

	svc := datasets.NewService(datasetStore, responder, log, opts...)

	handler := api.NewRouter(api.RouterConfig{
		Datasets:    handlers.NewDatasetsHandler(svc, log),
		Jobs:        jobsHandler,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Coach.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if jobQueue != nil {
		// Stop job queue and wait for in-flight exports
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping export queue")
		}
		cancelWorker()
		if err := jobQueue.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close export queue")
		}
	}

	log.Info().Msg("Server exited")
}

// openStore selects the dataset store backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendFile:
		st, err := filestore.Open(cfg.File)
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil
	case config.BackendGCS:
		st, err := gcsstore.New(ctx, gcsstore.Options{
			Bucket:          cfg.GCSBucket,
			Prefix:          cfg.GCSPrefix,
			CredentialsFile: cfg.GCSCredentialsFile,
		})
		if err != nil {
			return nil, noop, err
		}
		return st, func() { st.Close() }, nil
	default:
		return inmemory.NewStore(), noop, nil
	}
}
