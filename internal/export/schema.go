package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

var requiredColumns = map[string]bool{
	"dataset_id":       true,
	"tx_id":            true,
	"transaction_date": true,
	"merchant":         true,
	"amount":           true,
	"exported_ts":      true,
}

// Schema returns the warehouse table schema derived from TransactionRow.
func Schema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return nil, fmt.Errorf("Schema: infer from TransactionRow: %w", err)
	}
	for _, f := range schema {
		f.Required = requiredColumns[f.Name]
	}
	return schema, nil
}

// TableMetadata describes the export table: monthly partitions on
// transaction_date, clustered by dataset.
func TableMetadata() (*bigquery.TableMetadata, error) {
	schema, err := Schema()
	if err != nil {
		return nil, err
	}
	return &bigquery.TableMetadata{
		Name:        "MoneyMagic transactions",
		Description: "Transactions exported from MoneyMagic datasets.",
		Schema:      schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.MonthPartitioningType,
			Field: "transaction_date",
		},
		Clustering: &bigquery.Clustering{Fields: []string{"dataset_id"}},
	}, nil
}

// EnsureTable creates the destination dataset and table when missing.
// It reports whether the table was created.
func (s *BigQuerySink) EnsureTable(ctx context.Context) (bool, error) {
	ds := s.client.DatasetInProject(s.project, s.dataset)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return false, fmt.Errorf("EnsureTable: dataset metadata: %w", err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return false, fmt.Errorf("EnsureTable: create dataset %s: %w", s.dataset, err)
		}
	}

	table := ds.Table(s.table)
	if _, err := table.Metadata(ctx); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, fmt.Errorf("EnsureTable: table metadata: %w", err)
	}

	md, err := TableMetadata()
	if err != nil {
		return false, err
	}
	if err := table.Create(ctx, md); err != nil {
		return false, fmt.Errorf("EnsureTable: create table %s: %w", s.table, err)
	}
	return true, nil
}

// Tables lists the table IDs in the destination dataset.
func (s *BigQuerySink) Tables(ctx context.Context) ([]string, error) {
	var names []string
	it := s.client.DatasetInProject(s.project, s.dataset).Tables(ctx)
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Tables: listing %s: %w", s.dataset, err)
		}
		names = append(names, t.TableID)
	}
	return names, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
