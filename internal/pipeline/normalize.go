package pipeline

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/google/uuid"
)

// Record is a loosely-typed transaction as decoded from JSON.
type Record = map[string]interface{}

// NormalizeTransactions coerces loosely-typed records into canonical
// transactions. It never drops a row: malformed numbers default to zero,
// missing strings to "", and blank tx_ids are replaced with fresh UUIDs.
func NormalizeTransactions(records []Record) []domain.Transaction {
	result := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		result = append(result, NormalizeTransaction(rec))
	}
	return result
}

// NormalizeTransaction coerces a single record.
func NormalizeTransaction(rec Record) domain.Transaction {
	tx := domain.Transaction{
		TxID:           coerceString(rec, "tx_id"),
		Date:           normalizeDateString(coerceString(rec, "date")),
		Description:    coerceString(rec, "description"),
		Merchant:       coerceString(rec, "merchant"),
		Amount:         Round2(coerceFloat(rec, "amount")),
		Category:       coerceString(rec, "category"),
		Source:         coerceString(rec, "source"),
		IntervalDays:   coerceInt(rec, "interval_days"),
		NextChargeDate: normalizeDateString(coerceString(rec, "next_charge_date")),
	}
	if tx.TxID == "" {
		tx.TxID = uuid.New().String()
	}
	return tx
}

// CanonicalizeTransaction applies the same invariants to an already typed
// transaction (ingested rows, stored rows).
func CanonicalizeTransaction(tx domain.Transaction) domain.Transaction {
	tx.TxID = strings.TrimSpace(tx.TxID)
	if tx.TxID == "" {
		tx.TxID = uuid.New().String()
	}
	tx.Date = normalizeDateString(tx.Date)
	tx.NextChargeDate = normalizeDateString(tx.NextChargeDate)
	tx.Merchant = strings.TrimSpace(tx.Merchant)
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Amount = Round2(tx.Amount)
	if tx.IntervalDays < 0 {
		tx.IntervalDays = 0
	}
	return tx
}

// normalizeDateString reduces parseable dates to YYYY-MM-DD and leaves
// anything else untouched so no information is silently lost.
func normalizeDateString(s string) string {
	if s == "" {
		return ""
	}
	if d, ok := domain.ParseDate(s); ok {
		return d.String()
	}
	return s
}

func coerceString(m Record, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func coerceFloat(m Record, key string) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// coerceInt truncates toward zero and floors negative values at 0.
func coerceInt(m Record, key string) int {
	f := coerceFloat(m, key)
	if f <= 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
