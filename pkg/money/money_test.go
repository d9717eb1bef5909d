package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
)

func TestParseCurrency(t *testing.T) {
	unit, err := ParseCurrency(" EUR ")
	require.NoError(t, err)
	assert.Equal(t, currency.EUR, unit)

	_, err = ParseCurrency("NOPE")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRoundUsesCurrencyScale(t *testing.T) {
	usd := Money{Amount: decimal.RequireFromString("10.005"), Currency: currency.USD}
	assert.Equal(t, "10.01", usd.Round().String())

	jpy := Money{Amount: decimal.RequireFromString("1200.6"), Currency: currency.JPY}
	assert.Equal(t, "1201", jpy.Round().String())
}

func TestFormat(t *testing.T) {
	out := Format(decimal.RequireFromString("1234.5"), currency.USD, language.AmericanEnglish)
	assert.Contains(t, out, "$")
	assert.Contains(t, out, "234.50")
}
