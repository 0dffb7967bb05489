package export

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/moneymagic/internal/store"
	"github.com/rs/zerolog"
)

// Exporter copies stored datasets to a Sink.
type Exporter struct {
	store store.Store
	sink  Sink
	log   zerolog.Logger
	now   func() time.Time
}

// NewExporter creates an exporter reading from st and writing to sink.
func NewExporter(st store.Store, sink Sink, log zerolog.Logger) *Exporter {
	return &Exporter{store: st, sink: sink, log: log, now: time.Now}
}

// ExportDataset loads datasetID and writes all its transactions. It returns
// the number of rows written.
func (e *Exporter) ExportDataset(ctx context.Context, datasetID string) (int, error) {
	ds, err := e.store.Get(ctx, datasetID)
	if err != nil {
		return 0, fmt.Errorf("ExportDataset: loading dataset: %w", err)
	}

	rows := RowsFromDataset(datasetID, ds, e.now())
	if err := e.sink.Write(ctx, rows); err != nil {
		return 0, fmt.Errorf("ExportDataset: %w", err)
	}

	if skipped := len(ds.Transactions) - len(rows); skipped > 0 {
		e.log.Warn().
			Str("dataset_id", datasetID).
			Int("skipped", skipped).
			Msg("Skipped transactions without a valid date")
	}
	return len(rows), nil
}

// Handle is the queue JobHandler for export jobs.
func (e *Exporter) Handle(ctx context.Context, job *Job) error {
	log := e.log.With().Str("job_id", job.JobID).Str("dataset_id", job.DatasetID).Logger()
	log.Info().Int("retry", job.RetryCount).Msg("Processing export job")

	n, err := e.ExportDataset(ctx, job.DatasetID)
	if err != nil {
		log.Error().Err(err).Msg("Export job failed")
		return err
	}

	job.RowsWritten = n
	log.Info().Int("rows", n).Msg("Export job completed")
	return nil
}

// Notifier enqueues an export job whenever a dataset changes. Publishing
// failures are logged and never reach the caller.
type Notifier struct {
	publisher Publisher
	log       zerolog.Logger
}

// NewNotifier creates a notifier publishing to p.
func NewNotifier(p Publisher, log zerolog.Logger) *Notifier {
	return &Notifier{publisher: p, log: log}
}

// DatasetChanged enqueues an export of datasetID.
func (n *Notifier) DatasetChanged(ctx context.Context, datasetID string) {
	job := &Job{DatasetID: datasetID}
	if err := n.publisher.PublishExport(ctx, job); err != nil {
		n.log.Warn().Err(err).Str("dataset_id", datasetID).Msg("Failed to enqueue export job")
		return
	}
	n.log.Debug().Str("dataset_id", datasetID).Str("job_id", job.JobID).Msg("Enqueued export job")
}
