package report

import (
	"fmt"
	"io"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/money"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteSummary renders the spend overview and per-category totals.
func WriteSummary(w io.Writer, s domain.Summary) {
	fmt.Fprintf(w, "Spent this month:      %s\n", money.Dollars(s.TotalSpentThisMonth))
	fmt.Fprintf(w, "Subscriptions / month: %s\n", money.Dollars(s.SubscriptionMonthlyTotal))
	fmt.Fprintf(w, "Biggest category:      %s (%s)\n\n", s.BiggestCategory.Name, money.Dollars(s.BiggestCategory.Amount))

	if len(s.CategoryTotals) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Category", "Total"})
		for _, ct := range s.CategoryTotals {
			t.AppendRow(table.Row{ct.Category, money.Dollars(ct.Amount)})
		}
		t.Render()
		fmt.Fprintln(w)
	}

	if len(s.MonthlyTotals) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Month", "Total"})
		for _, mt := range s.MonthlyTotals {
			t.AppendRow(table.Row{mt.Month, money.Dollars(mt.Amount)})
		}
		t.Render()
		fmt.Fprintln(w)
	}
}

// WriteSubscriptions renders one row per subscription with a monthly total footer.
func WriteSubscriptions(w io.Writer, subs []domain.Subscription) {
	if len(subs) == 0 {
		fmt.Fprintln(w, "No subscriptions detected.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Merchant", "Every", "Monthly", "Next charge", "Confidence"})

	total := 0.0
	for _, sub := range subs {
		total += sub.MonthlyCost
		t.AppendRow(table.Row{
			sub.Merchant,
			fmt.Sprintf("%d days", sub.IntervalDays),
			money.Dollars(sub.MonthlyCost),
			sub.NextChargeDate,
			confidence(sub.Confidence),
		})
	}

	t.AppendSeparator()
	t.AppendFooter(table.Row{"Total", "", money.Dollars(total), "", ""})
	t.Render()
}

func confidence(c *float64) string {
	if c == nil {
		return text.FgHiBlack.Sprint("manual")
	}
	return fmt.Sprintf("%.0f%%", *c*100)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
