package pipeline

import (
	"fmt"
	"sort"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/shopspring/decimal"
)

// NoCategory is reported as the biggest category when nothing was spent.
const NoCategory = "N/A"

// BuildSummary aggregates spend (positive amounts) per category and month.
// "This month" is the latest month present in the data, not the wall clock.
func BuildSummary(txs []domain.Transaction, subs []domain.Subscription) domain.Summary {
	byCategory := make(map[string]decimal.Decimal)
	byMonth := make(map[string]decimal.Decimal)

	for _, tx := range txs {
		if !tx.IsSpend() {
			continue
		}
		d, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		amount := decimal.NewFromFloat(tx.Amount)
		month := fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
		byCategory[tx.Category] = byCategory[tx.Category].Add(amount)
		byMonth[month] = byMonth[month].Add(amount)
	}

	summary := domain.Summary{
		BiggestCategory: domain.BiggestCategory{Name: NoCategory, Amount: 0},
		CategoryTotals:  make([]domain.CategoryTotal, 0, len(byCategory)),
		MonthlyTotals:   make([]domain.MonthTotal, 0, len(byMonth)),
	}

	for category, total := range byCategory {
		summary.CategoryTotals = append(summary.CategoryTotals, domain.CategoryTotal{
			Category: category,
			Amount:   toFloat2(total),
		})
	}
	sort.Slice(summary.CategoryTotals, func(i, j int) bool {
		a, b := summary.CategoryTotals[i], summary.CategoryTotals[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})
	if len(summary.CategoryTotals) > 0 {
		top := summary.CategoryTotals[0]
		summary.BiggestCategory = domain.BiggestCategory{Name: top.Category, Amount: top.Amount}
	}

	for month, total := range byMonth {
		summary.MonthlyTotals = append(summary.MonthlyTotals, domain.MonthTotal{
			Month:  month,
			Amount: toFloat2(total),
		})
	}
	sort.Slice(summary.MonthlyTotals, func(i, j int) bool {
		return summary.MonthlyTotals[i].Month < summary.MonthlyTotals[j].Month
	})
	if n := len(summary.MonthlyTotals); n > 0 {
		summary.TotalSpentThisMonth = summary.MonthlyTotals[n-1].Amount
	}

	costs := make([]float64, len(subs))
	for i, s := range subs {
		costs[i] = s.MonthlyCost
	}
	summary.SubscriptionMonthlyTotal = toFloat2(sumDecimal(costs))

	return summary
}
