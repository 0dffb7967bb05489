package pipeline

import (
	"math"
	"strings"

	"github.com/dvloznov/moneymagic/internal/domain"
)

// DefaultManualIntervalDays applies when a manual subscription omits its cadence.
const DefaultManualIntervalDays = 30

// ReconcileSubscriptions merges the three sources of subscription truth.
//
// A non-empty explicit list replaces detection entirely; otherwise the
// detected list is used. Subscriptions asserted through manual transactions
// are always appended. Entries are not deduplicated across sources, so a
// merchant declared twice shows up twice.
func ReconcileSubscriptions(explicit, detected []domain.Subscription, txs []domain.Transaction) []domain.Subscription {
	base := detected
	if len(explicit) > 0 {
		base = explicit
	}

	manual := ManualSubscriptions(txs)
	result := make([]domain.Subscription, 0, len(base)+len(manual))
	result = append(result, base...)
	result = append(result, manual...)

	SortByMonthlyCost(result)
	return result
}

// ManualSubscriptions converts each subscription-tagged transaction 1:1.
func ManualSubscriptions(txs []domain.Transaction) []domain.Subscription {
	subs := make([]domain.Subscription, 0)
	for _, tx := range txs {
		if !isManualSubscription(tx) {
			continue
		}

		interval := tx.IntervalDays
		if interval <= 0 {
			interval = DefaultManualIntervalDays
		}

		next := tx.NextChargeDate
		if strings.TrimSpace(next) == "" {
			next = tx.Date
		}

		subs = append(subs, domain.Subscription{
			Merchant:       strings.TrimSpace(tx.Merchant),
			IntervalDays:   interval,
			MonthlyCost:    Round2(tx.Amount),
			NextChargeDate: next,
		})
	}
	return subs
}

func isManualSubscription(tx domain.Transaction) bool {
	tagged := tx.Source == domain.SourceManualSubscription ||
		strings.EqualFold(strings.TrimSpace(tx.Category), "subscription")
	return tagged && tx.Amount > 0 && strings.TrimSpace(tx.Merchant) != ""
}

// NormalizeSubscriptions coerces caller-supplied subscription records.
// Values are trusted as given apart from type coercion and defaults.
func NormalizeSubscriptions(records []Record) []domain.Subscription {
	subs := make([]domain.Subscription, 0, len(records))
	for _, rec := range records {
		cost := Round2(coerceFloat(rec, "monthly_cost"))
		if cost < 0 {
			cost = 0
		}
		interval := coerceInt(rec, "interval_days")
		if interval <= 0 {
			interval = DefaultManualIntervalDays
		}

		sub := domain.Subscription{
			Merchant:       coerceString(rec, "merchant"),
			IntervalDays:   interval,
			MonthlyCost:    cost,
			NextChargeDate: normalizeDateString(coerceString(rec, "next_charge_date")),
		}
		if v, ok := rec["confidence"]; ok && v != nil {
			c := math.Min(1, math.Max(0, coerceFloat(rec, "confidence")))
			sub.Confidence = &c
		}
		subs = append(subs, sub)
	}
	return subs
}
