package domain

import (
	"strings"

	"cloud.google.com/go/civil"
)

// Source tags recorded on each transaction.
const (
	SourceCSV                  = "csv"
	SourceXLSX                 = "xlsx"
	SourceManual               = "manual"
	SourceManualSubscription   = "manual_subscription"
	SourceOneTimeFuturePayment = "one_time_future_payment"
)

// DateLayout is the calendar date format used for every persisted date.
const DateLayout = "2006-01-02"

// Transaction is the canonical shape of one spend or credit row.
// Amount is positive for money OUT (spend) and negative for refunds/credits.
type Transaction struct {
	TxID           string  `json:"tx_id"`
	Date           string  `json:"date"`
	Description    string  `json:"description"`
	Merchant       string  `json:"merchant"`
	Amount         float64 `json:"amount"`
	Category       string  `json:"category"`
	Source         string  `json:"source"`
	IntervalDays   int     `json:"interval_days"`
	NextChargeDate string  `json:"next_charge_date"`
}

// ParsedDate returns the transaction date as a civil.Date.
// ok is false when the date is empty or malformed.
func (t Transaction) ParsedDate() (civil.Date, bool) {
	return ParseDate(t.Date)
}

// IsSpend reports whether the transaction is money out.
func (t Transaction) IsSpend() bool {
	return t.Amount > 0
}

// ParseDate parses a YYYY-MM-DD date, tolerating a trailing time component
// such as "2024-01-05T00:00:00".
func ParseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, false
	}
	return d, true
}
