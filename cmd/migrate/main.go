package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/moneymagic/internal/config"
	"github.com/dvloznov/moneymagic/internal/export"
	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var (
		projectID = flag.String("project", cfg.Export.Project, "GCP project ID (or set BQ_PROJECT)")
		datasetID = flag.String("dataset", cfg.Export.Dataset, "BigQuery dataset ID")
		tableID   = flag.String("table", cfg.Export.Table, "BigQuery table ID")
		dryRun    = flag.Bool("dry-run", false, "Print the export table schema without touching BigQuery")
	)
	flag.Parse()

	schema, err := export.Schema()
	if err != nil {
		log.Fatalf("Failed to build schema: %v", err)
	}

	if *dryRun {
		printSchema(os.Stdout, schema)
		return
	}

	// Validate required flags
	if *projectID == "" {
		log.Fatal("Error: -project flag is required. Please specify your GCP project ID.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sink, err := export.NewBigQuerySink(ctx, *projectID, *datasetID, *tableID)
	if err != nil {
		log.Fatalf("Failed to create BigQuery client: %v", err)
	}
	defer sink.Close()

	log.Printf("Connected to BigQuery project: %s, dataset: %s", *projectID, *datasetID)

	created, err := sink.EnsureTable(ctx)
	if err != nil {
		log.Fatalf("Failed to ensure export table: %v", err)
	}
	if created {
		log.Printf("  [OK]   created %s", sink.Table())
	} else {
		log.Printf("  [SKIP] %s already exists", sink.Table())
	}

	tables, err := sink.Tables(ctx)
	if err != nil {
		log.Fatalf("Failed to list tables: %v", err)
	}
	log.Printf("Dataset %s now holds: %s", *datasetID, strings.Join(tables, ", "))
}

func printSchema(w io.Writer, schema bigquery.Schema) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Column", "Type", "Mode"})
	for _, f := range schema {
		t.AppendRow(table.Row{f.Name, string(f.Type), mode(f)})
	}
	t.Render()
}

func mode(f *bigquery.FieldSchema) string {
	if f.Required {
		return "REQUIRED"
	}
	return "NULLABLE"
}
