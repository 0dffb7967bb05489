package domain

import "time"

// CategoryTotal is the all-time spend for one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// MonthTotal is the spend for one YYYY-MM month.
type MonthTotal struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// BiggestCategory names the category with the highest all-time spend.
type BiggestCategory struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Summary is derived from the transactions and subscriptions of a dataset
// and recomputed whenever transactions change.
type Summary struct {
	TotalSpentThisMonth      float64         `json:"total_spent_this_month"`
	SubscriptionMonthlyTotal float64         `json:"subscription_monthly_total"`
	BiggestCategory          BiggestCategory `json:"biggest_category"`
	CategoryTotals           []CategoryTotal `json:"category_totals"`
	MonthlyTotals            []MonthTotal    `json:"monthly_totals"`
}

// Goals are optional user budgeting targets.
type Goals struct {
	MonthlyBudget *float64 `json:"monthly_budget,omitempty"`
	SavingsGoal   *float64 `json:"savings_goal,omitempty"`
}

// Dataset is the unit of persistence, keyed by an opaque generated ID.
type Dataset struct {
	Transactions  []Transaction  `json:"transactions"`
	Subscriptions []Subscription `json:"subscriptions"`
	Summary       Summary        `json:"summary"`
	Goals         Goals          `json:"goals"`

	// ExplicitSubscriptions holds the caller-supplied subscription list so
	// that later recomputations keep suppressing detected entries.
	ExplicitSubscriptions []Subscription `json:"explicit_subscriptions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	c := *d
	c.Transactions = cloneSlice(d.Transactions)
	c.Subscriptions = cloneSubscriptions(d.Subscriptions)
	c.ExplicitSubscriptions = cloneSubscriptions(d.ExplicitSubscriptions)
	c.Summary.CategoryTotals = cloneSlice(d.Summary.CategoryTotals)
	c.Summary.MonthlyTotals = cloneSlice(d.Summary.MonthlyTotals)
	c.Goals = Goals{
		MonthlyBudget: cloneFloat(d.Goals.MonthlyBudget),
		SavingsGoal:   cloneFloat(d.Goals.SavingsGoal),
	}
	return &c
}

func cloneSubscriptions(subs []Subscription) []Subscription {
	if subs == nil {
		return nil
	}
	out := make([]Subscription, len(subs))
	for i, s := range subs {
		s.Confidence = cloneFloat(s.Confidence)
		out[i] = s
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
