package ingest

import (
	"errors"
	"testing"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_StandardColumns(t *testing.T) {
	data := []byte("Date,Merchant,Description,Amount\n" +
		"2024-01-01,Netflix,Monthly plan,15.99\n" +
		"01/15/2024,Whole Foods,,\"$1,020.50\"\n" +
		"2024-01-20,Refund Co,return,(12.00)\n")

	txs, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "2024-01-01", txs[0].Date)
	assert.Equal(t, "Netflix", txs[0].Merchant)
	assert.Equal(t, "Monthly plan", txs[0].Description)
	assert.Equal(t, 15.99, txs[0].Amount)
	assert.Equal(t, domain.SourceCSV, txs[0].Source)
	assert.NotEmpty(t, txs[0].TxID)

	assert.Equal(t, "2024-01-15", txs[1].Date)
	assert.Equal(t, 1020.5, txs[1].Amount)

	assert.Equal(t, -12.0, txs[2].Amount)
	assert.NotEqual(t, txs[0].TxID, txs[1].TxID)
}

func TestParseCSV_AliasColumns(t *testing.T) {
	data := []byte("Posted Date,Payee,Memo,Debit,Credit\n" +
		"2024-02-01,Rent Co,February,1200,\n" +
		"2024-02-02,Employer,Payroll,,3000\n" +
		"2024-02-03,Shop,partial,50,10\n")

	txs, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "Rent Co", txs[0].Merchant)
	assert.Equal(t, "February", txs[0].Description)
	assert.Equal(t, 1200.0, txs[0].Amount)
	assert.Equal(t, -3000.0, txs[1].Amount)
	assert.Equal(t, 40.0, txs[2].Amount)
}

func TestParseCSV_DescriptionDoublesAsMerchant(t *testing.T) {
	data := []byte("Transaction Date,Description,Deposit\n2024-03-01,Interest,1.25\n")

	txs, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Interest", txs[0].Merchant)
	assert.Equal(t, "Interest", txs[0].Description)
	assert.Equal(t, -1.25, txs[0].Amount)
}

func TestParseCSV_DropsBadRows(t *testing.T) {
	data := []byte("date,merchant,amount\n" +
		"not a date,Netflix,15.99\n" +
		"2024-01-01,,15.99\n" +
		"2024-01-01,Netflix,abc\n" +
		",,\n" +
		"2024-01-02,Spotify,9.99\n")

	txs, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Spotify", txs[0].Merchant)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{"empty", "", "Uploaded file is empty."},
		{"whitespace", "  \n ", "Uploaded file is empty."},
		{"header only", "date,merchant,amount\n", "File has no rows."},
		{"no date column", "when,merchant,amount\nx,y,1\n", "Could not find a date column."},
		{"no merchant column", "date,what,amount\n2024-01-01,y,1\n", "Could not find a merchant/description column."},
		{"no amount column", "date,merchant,total\n2024-01-01,y,1\n", "Could not find amount/debit/credit column."},
		{"no surviving rows", "date,merchant,amount\nbad,y,1\n", "No valid transaction rows found after normalization."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV([]byte(tt.data))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantMsg, perr.Msg)
		})
	}
}

func TestParseDateCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-05", "2024-01-05", true},
		{"01/05/2024", "2024-01-05", true},
		{"1/5/2024", "2024-01-05", true},
		{"2024/01/05", "2024-01-05", true},
		{"01-05-2024", "2024-01-05", true},
		{"01-05-24", "2024-01-05", true},
		{"1/5/24", "2024-01-05", true},
		{"Jan 5, 2024", "2024-01-05", true},
		{"5 Jan 2024", "2024-01-05", true},
		{"2024-01-05T09:30:00Z", "2024-01-05", true},
		{"", "", false},
		{"yesterday", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDateCell(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseAmountCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.50", "12.5", true},
		{"$1,200.00", "1200", true},
		{"(45.10)", "-45.1", true},
		{"-3", "-3", true},
		{"", "0", false},
		{"twelve", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmountCell(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}
