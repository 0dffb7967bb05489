package pipeline

import (
	"strings"

	"github.com/dvloznov/moneymagic/internal/domain"
)

// FallbackCategory is assigned when no keyword matches.
const FallbackCategory = "Other"

// CategoryRule maps a category to the keywords that select it.
type CategoryRule struct {
	Category string
	Keywords []string
}

// CategoryRules is evaluated in order; the first matching rule wins.
var CategoryRules = []CategoryRule{
	{Category: "Food", Keywords: []string{"restaurant", "cafe", "doordash", "uber eats"}},
	{Category: "Groceries", Keywords: []string{"whole foods", "trader joe", "walmart", "kroger"}},
	{Category: "Rent", Keywords: []string{"rent", "landlord"}},
	{Category: "Utilities", Keywords: []string{"electric", "water", "gas", "internet"}},
	{Category: "Transport", Keywords: []string{"uber", "lyft", "metro", "transit", "gas station"}},
	{Category: "Entertainment", Keywords: []string{"netflix", "spotify", "hulu", "disney"}},
	{Category: "Shopping", Keywords: []string{"amazon", "target"}},
}

// CategorizeTransactions returns a copy of txs with every category filled in.
// Existing categories are kept verbatim.
func CategorizeTransactions(txs []domain.Transaction) []domain.Transaction {
	result := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		tx.Category = Categorize(tx)
		result[i] = tx
	}
	return result
}

// Categorize returns the category for a single transaction.
func Categorize(tx domain.Transaction) string {
	if hasCategory(tx.Category) {
		return tx.Category
	}

	haystack := strings.ToLower(tx.Merchant + " " + tx.Description)
	for _, rule := range CategoryRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(haystack, keyword) {
				return rule.Category
			}
		}
	}
	return FallbackCategory
}

// hasCategory treats "nan" as missing; spreadsheet exports write it for blank cells.
func hasCategory(category string) bool {
	c := strings.TrimSpace(category)
	return c != "" && !strings.EqualFold(c, "nan")
}
