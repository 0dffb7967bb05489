package ingest

import (
	"bytes"
	"strconv"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of a workbook. The first non-empty row is
// the header; the rest follow the same rules as CSV.
func ParseXLSX(data []byte) ([]domain.Transaction, error) {
	if len(data) == 0 {
		return nil, parseErrorf("Uploaded file is empty.")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Msg: "Unable to parse spreadsheet", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErrorf("Spreadsheet has no sheets.")
	}

	// Raw values keep date cells as serial numbers instead of the
	// workbook's display format, which may use two-digit years.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Msg: "Unable to read sheet", Err: err}
	}

	rows = dropBlankRows(rows)
	convertDateSerials(rows)
	return rowsToTransactions(rows, domain.SourceXLSX)
}

// convertDateSerials rewrites numeric cells of the date column as
// YYYY-MM-DD. Rows are left alone when no header can be sniffed.
func convertDateSerials(rows [][]string) {
	if len(rows) < 2 {
		return
	}
	cols, err := sniffColumns(rows[0])
	if err != nil {
		return
	}
	for _, row := range rows[1:] {
		if d, ok := dateFromSerial(cell(row, cols.date)); ok {
			row[cols.date] = d
		}
	}
}

func dateFromSerial(s string) (string, bool) {
	if _, ok := ParseDateCell(s); ok {
		return "", false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.Format(domain.DateLayout), true
}
