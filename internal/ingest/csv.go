package ingest

import (
	"bytes"
	"encoding/csv"

	"github.com/dvloznov/moneymagic/internal/domain"
)

// ParseCSV parses a bank-export CSV with a header row.
func ParseCSV(data []byte) ([]domain.Transaction, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, parseErrorf("Uploaded file is empty.")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Msg: "Unable to parse CSV", Err: err}
	}

	return rowsToTransactions(dropBlankRows(rows), domain.SourceCSV)
}

func dropBlankRows(rows [][]string) [][]string {
	kept := rows[:0]
	for _, row := range rows {
		for _, c := range row {
			if c != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}
