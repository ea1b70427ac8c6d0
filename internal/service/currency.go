package service

import (
	"fmt"

	"finledger/internal/model"

	"github.com/shopspring/decimal"
)

// ConvertCurrency converts amount between two currencies through the EUR
// pivot: amount * rate(from) / rate(to). Equal codes return amount as is.
// Both codes must be present in rates with a positive rate.
func ConvertCurrency(amount decimal.Decimal, from, to string, rates model.RateTable) (decimal.Decimal, error) {
	from = model.NormalizeCurrency(from)
	to = model.NormalizeCurrency(to)
	if from == to {
		return amount, nil
	}

	fromRate, err := lookupRate(rates, from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := lookupRate(rates, to)
	if err != nil {
		return decimal.Zero, err
	}

	inEUR := amount.Mul(fromRate)
	return inEUR.Div(toRate), nil
}

func lookupRate(rates model.RateTable, code string) (decimal.Decimal, error) {
	rate, ok := rates.Rate(code)
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return rate, nil
}
