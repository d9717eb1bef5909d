// Package money renders cart amounts for display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
)

// Money pairs an amount with its currency.
type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// ParseCurrency resolves an ISO 4217 code such as "USD".
func ParseCurrency(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return currency.Unit{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown currency "+code)
	}
	return unit, nil
}

// Round applies the currency's standard number of decimals.
func (m Money) Round() decimal.Decimal {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return m.Amount.Round(int32(scale))
}

// Format renders the amount with the currency symbol using the tag's number conventions.
func (m Money) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(m.Currency.Amount(m.Round().InexactFloat64())))
}

// Format is shorthand for Money{amount, unit}.Format(tag).
func Format(amount decimal.Decimal, unit currency.Unit, tag language.Tag) string {
	return Money{Amount: amount, Currency: unit}.Format(tag)
}
