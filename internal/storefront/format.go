package storefront

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders a USD amount with grouping, e.g. "$1,234.50".
func FormatPrice(amount decimal.Decimal, fractionDigits int) string {
	if fractionDigits < 0 {
		fractionDigits = 0
	}

	rounded := amount.Round(int32(fractionDigits))
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	f, _ := rounded.Float64()
	return sign + "$" + pricePrinter.Sprintf(fmt.Sprintf("%%.%df", fractionDigits), f)
}
