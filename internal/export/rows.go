package export

import (
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow is one exported transaction in the warehouse table. Every
// export appends a full snapshot of the dataset; the rows sharing the latest
// exported_ts for a dataset_id are its current state.
type TransactionRow struct {
	DatasetID string `bigquery:"dataset_id"` // REQUIRED
	TxID      string `bigquery:"tx_id"`      // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Merchant    string              `bigquery:"merchant"`    // REQUIRED STRING
	Description bigquery.NullString `bigquery:"description"` // NULLABLE

	Amount *big.Rat `bigquery:"amount"` // REQUIRED NUMERIC

	Category bigquery.NullString `bigquery:"category"` // NULLABLE
	Source   bigquery.NullString `bigquery:"source"`   // NULLABLE

	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED
}

// RowsFromDataset maps a dataset's transactions to warehouse rows. Rows
// without a parseable date are skipped since transaction_date is required.
func RowsFromDataset(datasetID string, ds *domain.Dataset, exportedAt time.Time) []*TransactionRow {
	rows := make([]*TransactionRow, 0, len(ds.Transactions))
	for _, tx := range ds.Transactions {
		d, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		rows = append(rows, &TransactionRow{
			DatasetID:       datasetID,
			TxID:            tx.TxID,
			TransactionDate: d,
			Merchant:        tx.Merchant,
			Description:     nullString(tx.Description),
			Amount:          decimal.NewFromFloat(tx.Amount).Round(2).Rat(),
			Category:        nullString(tx.Category),
			Source:          nullString(tx.Source),
			ExportedTS:      exportedAt.UTC(),
		})
	}
	return rows
}

// InsertID identifies the row within one export snapshot:
// dataset_id:tx_id:exported_ts.
func (r *TransactionRow) InsertID() string {
	return r.DatasetID + ":" + r.TxID + ":" + r.ExportedTS.UTC().Format(time.RFC3339Nano)
}

func nullString(s string) bigquery.NullString {
	s = strings.TrimSpace(s)
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
