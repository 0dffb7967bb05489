package ingest

import (
	"strings"
	"time"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/pipeline"
	"github.com/shopspring/decimal"
)

// Header aliases, checked in order after trimming and lower-casing.
var (
	DateColumns        = []string{"date", "transaction date", "posted date"}
	MerchantColumns    = []string{"merchant", "description", "payee", "name"}
	DescriptionColumns = []string{"description", "memo", "details", "notes"}
	AmountColumns      = []string{"amount", "debit", "transaction amount"}
	CreditColumns      = []string{"credit", "deposit"}
)

// DateLayouts are tried in order for every date cell.
var DateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"01-02-06",
	"1/2/06",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

type columns struct {
	date, merchant, description, amount, credit int
}

func findColumn(header []string, candidates []string) int {
	for _, candidate := range candidates {
		for i, name := range header {
			if name == candidate {
				return i
			}
		}
	}
	return -1
}

func sniffColumns(header []string) (columns, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	cols := columns{
		date:        findColumn(normalized, DateColumns),
		merchant:    findColumn(normalized, MerchantColumns),
		description: findColumn(normalized, DescriptionColumns),
		amount:      findColumn(normalized, AmountColumns),
		credit:      findColumn(normalized, CreditColumns),
	}
	if cols.date < 0 {
		return cols, parseErrorf("Could not find a date column.")
	}
	if cols.merchant < 0 {
		return cols, parseErrorf("Could not find a merchant/description column.")
	}
	if cols.amount < 0 && cols.credit < 0 {
		return cols, parseErrorf("Could not find amount/debit/credit column.")
	}
	if cols.description < 0 {
		cols.description = cols.merchant
	}
	return cols, nil
}

// rowsToTransactions applies the shared column sniffing and row rules to a
// header-first table.
func rowsToTransactions(rows [][]string, source string) ([]domain.Transaction, error) {
	if len(rows) < 2 {
		return nil, parseErrorf("File has no rows.")
	}

	cols, err := sniffColumns(rows[0])
	if err != nil {
		return nil, err
	}

	txs := make([]domain.Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		tx, ok := rowToTransaction(row, cols, source)
		if ok {
			txs = append(txs, tx)
		}
	}
	if len(txs) == 0 {
		return nil, parseErrorf("No valid transaction rows found after normalization.")
	}
	return txs, nil
}

func rowToTransaction(row []string, cols columns, source string) (domain.Transaction, bool) {
	date, ok := ParseDateCell(cell(row, cols.date))
	if !ok {
		return domain.Transaction{}, false
	}

	merchant := strings.TrimSpace(cell(row, cols.merchant))
	if merchant == "" {
		return domain.Transaction{}, false
	}

	var amount decimal.Decimal
	switch {
	case cols.amount >= 0 && cols.credit >= 0:
		// Blank or unreadable cells count as zero when both columns exist.
		debit, _ := ParseAmountCell(cell(row, cols.amount))
		credit, _ := ParseAmountCell(cell(row, cols.credit))
		amount = debit.Sub(credit)
	case cols.amount >= 0:
		amount, ok = ParseAmountCell(cell(row, cols.amount))
		if !ok {
			return domain.Transaction{}, false
		}
	default:
		credit, ok := ParseAmountCell(cell(row, cols.credit))
		if !ok {
			return domain.Transaction{}, false
		}
		amount = credit.Neg()
	}

	tx := pipeline.CanonicalizeTransaction(domain.Transaction{
		Date:        date,
		Merchant:    merchant,
		Description: cell(row, cols.description),
		Amount:      amount.Round(2).InexactFloat64(),
		Source:      source,
	})
	return tx, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseDateCell parses a date cell in any of DateLayouts and returns it as
// YYYY-MM-DD.
func ParseDateCell(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(domain.DateLayout), true
		}
	}
	return "", false
}

// ParseAmountCell parses amounts like "12.50", "$1,200.00", "(45.00)" or
// "-3". Parentheses mean negative.
func ParseAmountCell(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
