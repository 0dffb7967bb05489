package coach

import (
	"fmt"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/money"
	"github.com/dvloznov/moneymagic/internal/pipeline"
)

const categoryCutRate = 0.15

// RuleBased is the deterministic answer used without an LLM. The question
// does not change the outcome.
func RuleBased(question string, summary domain.Summary, subs []domain.Subscription) Response {
	recs := make([]Recommendation, 0, MaxRecommendations)

	top := summary.CategoryTotals
	if len(top) > 2 {
		top = top[:2]
	}
	for _, ct := range top {
		recs = append(recs, Recommendation{
			Title:         fmt.Sprintf("Reduce %s spending", ct.Category),
			SavingsImpact: pipeline.Round2(ct.Amount * categoryCutRate),
			Steps: []string{
				fmt.Sprintf("Set a monthly cap for %s.", ct.Category),
				"Review purchases weekly and cut low-value items.",
			},
		})
	}

	if len(subs) > 0 {
		highest := subs[0]
		recs = append(recs, Recommendation{
			Title:         fmt.Sprintf("Review %s subscription", highest.Merchant),
			SavingsImpact: highest.MonthlyCost,
			Steps: []string{
				"Check if you used this service in the last 30 days.",
				"Flag it for cancellation if value is low.",
			},
		})
	}

	// Questions about cutting or saving get the same cap as everything else.
	recs = truncate(recs, MaxRecommendations)

	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Title:         "Start with one spending category",
			SavingsImpact: 25,
			Steps: []string{
				"Pick your largest discretionary category.",
				"Reduce that category by 10% this month.",
			},
		})
	}

	return Response{
		SummaryText:     SummaryText(summary),
		Recommendations: recs,
		Source:          SourceRules,
	}
}

// SummaryText is the one-paragraph overview of a dataset.
func SummaryText(summary domain.Summary) string {
	name := summary.BiggestCategory.Name
	if name == "" {
		name = pipeline.NoCategory
	}
	return fmt.Sprintf(
		"You spent %s in your most recent month. Your top category is %s and estimated monthly subscription spend is %s.",
		money.Dollars(summary.TotalSpentThisMonth), name, money.Dollars(summary.SubscriptionMonthlyTotal),
	)
}

func truncate(recs []Recommendation, n int) []Recommendation {
	if len(recs) > n {
		return recs[:n]
	}
	return recs
}
