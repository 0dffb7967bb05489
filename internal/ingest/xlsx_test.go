package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildXLSX writes rows to the first sheet of a new workbook.
func buildXLSX(t *testing.T, startRow int, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, v := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, startRow+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := buildXLSX(t, 3, [][]interface{}{
		{"Date", "Description", "Amount"},
		{"2024-01-01", "Netflix", "15.99"},
		{"2024-02-01", "Netflix", "15.99"},
		{"garbage", "Netflix", "15.99"},
	})

	txs, err := ParseXLSX(data)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Netflix", txs[0].Merchant)
	assert.Equal(t, 15.99, txs[0].Amount)
	assert.Equal(t, domain.SourceXLSX, txs[0].Source)
}

func TestParseXLSX_DateCells(t *testing.T) {
	data := buildXLSX(t, 1, [][]interface{}{
		{"Date", "Description", "Amount"},
		{time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "Netflix", 15.99},
		{time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), "Netflix", 15.99},
	})

	txs, err := ParseXLSX(data)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-01-05", txs[0].Date)
	assert.Equal(t, "2024-02-05", txs[1].Date)
	assert.Equal(t, 15.99, txs[1].Amount)
}

func TestDateFromSerial(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"45296", "2024-01-05", true},
		{"45296.5", "2024-01-05", true},
		{"2024-01-05", "", false},
		{"0", "", false},
		{"Netflix", "", false},
	}
	for _, tt := range tests {
		got, ok := dateFromSerial(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	_, err := ParseXLSX([]byte("date,merchant,amount"))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Unable to parse spreadsheet", perr.Msg)
}

func TestDetectFormat(t *testing.T) {
	xlsx := buildXLSX(t, 1, [][]interface{}{{"date"}})

	tests := []struct {
		filename    string
		contentType string
		data        []byte
		want        string
	}{
		{"bank.csv", "", nil, FormatCSV},
		{"bank.XLSX", "", nil, FormatXLSX},
		{"upload", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil, FormatXLSX},
		{"upload", "application/octet-stream", xlsx, FormatXLSX},
		{"upload", "text/plain", []byte("date,merchant"), FormatCSV},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.filename, tt.contentType), func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename, tt.contentType, tt.data))
		})
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{FormatCSV, FormatXLSX}, AvailableFormats())

	_, err := Parse("pdf", []byte("x"))
	var perr *ParseError
	require.True(t, errors.As(err, &perr))

	txs, err := Parse(FormatCSV, []byte("date,merchant,amount\n2024-01-01,A,1\n"))
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
