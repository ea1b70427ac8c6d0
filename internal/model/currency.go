package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PivotCurrency is the currency every rate is expressed against.
const PivotCurrency = "EUR"

// Currency carries the current (not historical) rate to EUR: one unit of
// the currency is worth ExchangeRateToEUR euros.
type Currency struct {
	Code              string          `gorm:"primaryKey;type:varchar(8)" json:"code"`
	Name              string          `gorm:"type:varchar(64)" json:"name"`
	Symbol            string          `gorm:"type:varchar(8)" json:"symbol"`
	ExchangeRateToEUR decimal.Decimal `gorm:"column:exchange_rate_to_eur;type:decimal(24,10);not null" json:"exchange_rate_to_eur"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Currency) TableName() string {
	return "currency"
}

// RateTable maps a currency code to its rate to EUR.
type RateTable map[string]decimal.Decimal

// NewRateTable builds a table from currency rows.
func NewRateTable(currencies []*Currency) RateTable {
	table := make(RateTable, len(currencies))
	for _, c := range currencies {
		table[NormalizeCurrency(c.Code)] = c.ExchangeRateToEUR
	}
	return table
}

// Rate returns the rate for code.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := t[NormalizeCurrency(code)]
	return rate, ok
}

func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
