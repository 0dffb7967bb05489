package pipeline

import (
	"math"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/shopspring/decimal"
)

// TargetIntervals are the billing cadences a merchant group can snap to.
// Order matters: ties go to the earlier entry.
var TargetIntervals = []int{7, 14, 30}

const (
	// ToleranceDays is how far the median gap may sit from its target cadence.
	ToleranceDays = 3

	minOccurrences = 3
	minGaps        = 2
)

type datedTx struct {
	date   civil.Date
	amount float64
}

// DetectSubscriptions infers recurring charges from spend history.
// Merchants are grouped by exact, case-sensitive name. The result is sorted
// by monthly cost, highest first; equal costs keep merchant name order.
func DetectSubscriptions(txs []domain.Transaction) []domain.Subscription {
	byMerchant := make(map[string][]datedTx)
	var merchants []string
	for _, tx := range txs {
		if !tx.IsSpend() {
			continue
		}
		d, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		if _, seen := byMerchant[tx.Merchant]; !seen {
			merchants = append(merchants, tx.Merchant)
		}
		byMerchant[tx.Merchant] = append(byMerchant[tx.Merchant], datedTx{date: d, amount: tx.Amount})
	}

	sort.Strings(merchants)

	subscriptions := make([]domain.Subscription, 0)
	for _, merchant := range merchants {
		sub, ok := detectGroup(merchant, byMerchant[merchant])
		if ok {
			subscriptions = append(subscriptions, sub)
		}
	}

	SortByMonthlyCost(subscriptions)
	return subscriptions
}

func detectGroup(merchant string, group []datedTx) (domain.Subscription, bool) {
	if len(group) < minOccurrences {
		return domain.Subscription{}, false
	}

	sorted := make([]datedTx, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].date.Before(sorted[j].date)
	})

	gaps := dayGaps(sorted)
	if len(gaps) < minGaps {
		return domain.Subscription{}, false
	}

	medianGap := Median(gaps)
	target := ClosestInterval(medianGap)
	if math.Abs(medianGap-float64(target)) > ToleranceDays {
		return domain.Subscription{}, false
	}

	confidence := ConfidenceFromStdDev(PopulationStdDev(gaps))
	intervalDays := int(math.RoundToEven(medianGap))

	amounts := make([]float64, len(sorted))
	for i, tx := range sorted {
		amounts[i] = tx.amount
	}

	last := sorted[len(sorted)-1].date
	return domain.Subscription{
		Merchant:       merchant,
		IntervalDays:   intervalDays,
		MonthlyCost:    MonthlyCost(amounts, intervalDays),
		NextChargeDate: last.AddDays(intervalDays).String(),
		Confidence:     &confidence,
	}, true
}

// dayGaps returns the day differences between consecutive dates.
func dayGaps(sorted []datedTx) []float64 {
	if len(sorted) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, float64(sorted[i].date.DaysSince(sorted[i-1].date)))
	}
	return gaps
}

// Median of values; the mean of the two middle values for even lengths.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// PopulationStdDev is the standard deviation with divisor n.
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// ClosestInterval snaps a gap to the nearest TargetIntervals entry.
func ClosestInterval(gap float64) int {
	best := TargetIntervals[0]
	bestDiff := math.Abs(gap - float64(best))
	for _, target := range TargetIntervals[1:] {
		if diff := math.Abs(gap - float64(target)); diff < bestDiff {
			best, bestDiff = target, diff
		}
	}
	return best
}

// ConfidenceFromStdDev maps gap spread to [0,1]: 0 days → 1.0, ≥10 days → 0.
func ConfidenceFromStdDev(stddev float64) float64 {
	return Round2(math.Max(0, 1-stddev/10))
}

// MonthlyCost normalizes the mean charge to a 30-day rate.
// A non-positive interval falls back to the raw mean.
func MonthlyCost(amounts []float64, intervalDays int) float64 {
	if len(amounts) == 0 {
		return 0
	}
	mean := sumDecimal(amounts).Div(decimal.NewFromInt(int64(len(amounts))))
	if intervalDays <= 0 {
		return toFloat2(mean)
	}
	return toFloat2(mean.Mul(decimal.NewFromInt(30)).Div(decimal.NewFromInt(int64(intervalDays))))
}

// SortByMonthlyCost orders subscriptions highest cost first. Equal costs
// keep their relative order.
func SortByMonthlyCost(subs []domain.Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].MonthlyCost > subs[j].MonthlyCost
	})
}
