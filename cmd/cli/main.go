package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/moneymagic/internal/config"
	"github.com/dvloznov/moneymagic/internal/export"
	"github.com/dvloznov/moneymagic/internal/ingest"
	"github.com/dvloznov/moneymagic/internal/logger"
	"github.com/dvloznov/moneymagic/internal/pipeline"
	"github.com/dvloznov/moneymagic/internal/report"
	"github.com/dvloznov/moneymagic/internal/statement"
	"github.com/dvloznov/moneymagic/internal/store/filestore"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("MoneyMagic CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Summarize a CSV or XLSX statement and detect subscriptions")
	fmt.Println("  export    Export a stored dataset's transactions to BigQuery")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	filePath := fs.String("file", "", "Path or gs:// URI of a CSV or XLSX statement")
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli analyze -file PATH [-json]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	name, data, err := statement.Load(ctx, *filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read statement")
	}

	format := ingest.DetectFormat(name, "", data)
	txs, err := ingest.Parse(format, data)
	if err != nil {
		log.Fatal().Err(err).Str("format", format).Msg("Failed to parse statement")
	}

	res := pipeline.Recompute(txs, nil)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"transactions":  res.Transactions,
			"subscriptions": res.Subscriptions,
			"summary":       res.Summary,
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode result")
		}
		return
	}

	fmt.Printf("Loaded %d transactions from %s\n\n", len(res.Transactions), name)
	report.WriteSummary(os.Stdout, res.Summary)
	report.WriteSubscriptions(os.Stdout, res.Subscriptions)
}

func runExport(log zerolog.Logger) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	datasetID := fs.String("dataset-id", "", "Dataset ID to export")
	storeFile := fs.String("store-file", cfg.Store.File, "Path to the dataset store JSON file")
	project := fs.String("project", cfg.Export.Project, "BigQuery project (or set BQ_PROJECT)")
	bqDataset := fs.String("bq-dataset", cfg.Export.Dataset, "BigQuery dataset")
	bqTable := fs.String("bq-table", cfg.Export.Table, "BigQuery table")
	fs.Parse(os.Args[2:])

	if *datasetID == "" || *project == "" {
		log.Fatal().Msg("Usage: cli export -dataset-id ID -project PROJECT [-store-file PATH]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := filestore.Open(*storeFile)
	if err != nil {
		log.Fatal().Err(err).Str("store_file", *storeFile).Msg("Failed to open dataset store")
	}

	sink, err := export.NewBigQuerySink(ctx, *project, *bqDataset, *bqTable)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery sink")
	}
	defer sink.Close()

	rows, err := export.NewExporter(st, sink, log).ExportDataset(ctx, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Str("dataset_id", *datasetID).Msg("Export failed")
	}

	fmt.Printf("Exported %d transactions of dataset %s to %s\n", rows, *datasetID, sink.Table())
}
