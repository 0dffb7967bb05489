package pipeline

import (
	"testing"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
		want string
	}{
		{"existing category wins", domain.Transaction{Merchant: "Netflix", Category: "Fun"}, "Fun"},
		{"nan counts as missing", domain.Transaction{Merchant: "Netflix", Category: "NaN"}, "Entertainment"},
		{"blank counts as missing", domain.Transaction{Merchant: "Kroger", Category: "  "}, "Groceries"},
		{"description is searched", domain.Transaction{Merchant: "POS 1234", Description: "LYFT *RIDE"}, "Transport"},
		{"table order breaks ties", domain.Transaction{Merchant: "Uber Eats"}, "Food"},
		{"gas matches utilities before transport", domain.Transaction{Merchant: "Shell Gas Station"}, "Utilities"},
		{"fallback", domain.Transaction{Merchant: "Corner Shop"}, FallbackCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.tx))
		})
	}
}

func TestCategorizeTransactions_DoesNotMutateInput(t *testing.T) {
	in := []domain.Transaction{{Merchant: "Spotify"}}
	out := CategorizeTransactions(in)

	assert.Equal(t, "", in[0].Category)
	assert.Equal(t, "Entertainment", out[0].Category)
}
