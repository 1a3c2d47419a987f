package ui

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	printer = message.NewPrinter(language.AmericanEnglish)
	strict  = bluemonday.StrictPolicy()
)

// FormatTotal renders an amount with US grouping and up to three fraction
// digits, prefixed with a dollar sign: 5000 -> "$5,000", 1234.5 -> "$1,234.5".
func FormatTotal(v float64) string {
	return "$" + printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatAverage renders the shortest decimal form of v without grouping:
// 25.5 -> "$25.5", 25 -> "$25".
func FormatAverage(v float64) string {
	return "$" + decimal.NewFromFloat(v).String()
}

// Sanitize strips markup from upstream text. The result is plain text and is
// escaped again by html/template.
func Sanitize(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}
