package pipeline

import (
	"github.com/dvloznov/moneymagic/internal/domain"
)

// Result is the derived state of a dataset.
type Result struct {
	Transactions  []domain.Transaction
	Subscriptions []domain.Subscription
	Summary       domain.Summary
}

// Recompute runs the full chain over the entire transaction set:
// categorize, detect, reconcile against explicit subscriptions, summarize.
func Recompute(txs []domain.Transaction, explicit []domain.Subscription) Result {
	categorized := CategorizeTransactions(txs)
	detected := DetectSubscriptions(categorized)
	subscriptions := ReconcileSubscriptions(explicit, detected, categorized)
	return Result{
		Transactions:  categorized,
		Subscriptions: subscriptions,
		Summary:       BuildSummary(categorized, subscriptions),
	}
}

// Apply recomputes a dataset in place from its transactions.
func Apply(ds *domain.Dataset) {
	res := Recompute(ds.Transactions, ds.ExplicitSubscriptions)
	ds.Transactions = res.Transactions
	ds.Subscriptions = res.Subscriptions
	ds.Summary = res.Summary
}
