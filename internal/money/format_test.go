package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{15.99, "15.99"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Amount(tt.in))
	}
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "$1,200.00", Dollars(1200))
}
