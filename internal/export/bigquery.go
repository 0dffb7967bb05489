package export

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// insertBatchSize keeps streaming inserts under the per-request row limit.
const insertBatchSize = 500

// Sink receives exported rows.
type Sink interface {
	Write(ctx context.Context, rows []*TransactionRow) error
}

// BigQuerySink streams rows into {project}.{dataset}.{table}.
type BigQuerySink struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
}

// NewBigQuerySink creates a BigQuery client for project.
func NewBigQuerySink(ctx context.Context, project, dataset, table string) (*BigQuerySink, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewBigQuerySink: bigquery client: %w", err)
	}
	return &BigQuerySink{client: client, project: project, dataset: dataset, table: table}, nil
}

// Write inserts rows in batches.
func (s *BigQuerySink) Write(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := s.client.DatasetInProject(s.project, s.dataset).Table(s.table).Inserter()
	for _, batch := range batches(rows, insertBatchSize) {
		if err := inserter.Put(ctx, savers(batch)); err != nil {
			return fmt.Errorf("BigQuerySink.Write: inserting rows: %w", err)
		}
	}
	return nil
}

// Table returns the fully qualified destination table.
func (s *BigQuerySink) Table() string {
	return fmt.Sprintf("%s.%s.%s", s.project, s.dataset, s.table)
}

// Close releases the BigQuery client.
func (s *BigQuerySink) Close() error {
	return s.client.Close()
}

func batches(rows []*TransactionRow, size int) [][]*TransactionRow {
	var out [][]*TransactionRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

// savers attaches each row's insert ID so a retried Put of the same
// snapshot is deduplicated by BigQuery.
func savers(rows []*TransactionRow) []*bigquery.StructSaver {
	out := make([]*bigquery.StructSaver, len(rows))
	for i, row := range rows {
		out[i] = &bigquery.StructSaver{Struct: row, InsertID: row.InsertID()}
	}
	return out
}

var _ Sink = (*BigQuerySink)(nil)
