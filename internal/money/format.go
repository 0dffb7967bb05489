package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Amount formats v with thousands separators and exactly two decimals,
// e.g. 1234.5 → "1,234.50".
func Amount(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Dollars prefixes Amount with a dollar sign: "$1,234.50", "$-3.00".
func Dollars(v float64) string {
	return "$" + Amount(v)
}
