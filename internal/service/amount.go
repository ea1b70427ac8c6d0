package service

import (
	"math"

	"finledger/internal/model"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the precision of every amount the engine derives itself
// (conversions, interest).
const moneyPlaces = 2

// SignedAmount is the single place where a category decides the sign of a
// posted amount. Expense and transfer amounts leave the account and are
// negative; income is positive. The sign of magnitude is ignored.
func SignedAmount(category string, magnitude decimal.Decimal) decimal.Decimal {
	abs := magnitude.Abs()
	switch category {
	case model.CategoryIncome:
		return abs
	default:
		return abs.Neg()
	}
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// PeriodicRate converts an annual percentage into a monthly rate. Simple
// interest divides by twelve; compound interest takes the twelfth root so
// twelve periods compound back to the annual rate.
func PeriodicRate(annualPercent decimal.Decimal, interestType string) decimal.Decimal {
	annual := annualPercent.Div(decimal.NewFromInt(100))
	if interestType == model.InterestTypeCompound {
		f := annual.InexactFloat64()
		return decimal.NewFromFloat(math.Pow(1+f, 1.0/12) - 1)
	}
	return annual.Div(decimal.NewFromInt(12))
}
