package report

import (
	"bytes"
	"testing"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, domain.Summary{
		TotalSpentThisMonth:      1215.99,
		SubscriptionMonthlyTotal: 15.99,
		BiggestCategory:          domain.BiggestCategory{Name: "Rent", Amount: 1200},
		CategoryTotals:           []domain.CategoryTotal{{Category: "Rent", Amount: 1200}},
		MonthlyTotals:            []domain.MonthTotal{{Month: "2024-03", Amount: 1215.99}},
	})

	out := buf.String()
	assert.Contains(t, out, "Spent this month:      $1,215.99")
	assert.Contains(t, out, "Biggest category:      Rent ($1,200.00)")
	assert.Contains(t, out, "2024-03")
}

func TestWriteSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, domain.Summary{BiggestCategory: domain.BiggestCategory{Name: "N/A"}})

	assert.Contains(t, buf.String(), "N/A ($0.00)")
	assert.NotContains(t, buf.String(), "Category")
}

func TestWriteSubscriptions(t *testing.T) {
	conf := 0.95
	var buf bytes.Buffer
	WriteSubscriptions(&buf, []domain.Subscription{
		{Merchant: "Netflix", IntervalDays: 30, MonthlyCost: 15.99, NextChargeDate: "2024-04-01", Confidence: &conf},
		{Merchant: "Gym", IntervalDays: 30, MonthlyCost: 40, NextChargeDate: "2024-04-05"},
	})

	out := buf.String()
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "95%")
	assert.Contains(t, out, "manual")
	assert.Contains(t, out, "$55.99")
}

func TestWriteSubscriptions_None(t *testing.T) {
	var buf bytes.Buffer
	WriteSubscriptions(&buf, nil)
	assert.Equal(t, "No subscriptions detected.\n", buf.String())
}
