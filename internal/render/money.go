package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var moneyPrinter = message.NewPrinter(language.English)

// Money formats an amount with grouping and two fraction digits, prefixed by
// the quote's currency symbol.
func Money(symbol string, amount float64) string {
	if symbol == "" {
		symbol = "$"
	}
	return symbol + moneyPrinter.Sprint(number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
