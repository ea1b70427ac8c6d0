package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a real money account. Balance is a cached value: it must equal
// OpeningBalance plus the sum of every confirmed transaction that counts
// toward the account (see CountsToward).
type Account struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string          `gorm:"type:varchar(128);not null" json:"name"`
	Currency       string          `gorm:"type:varchar(8);not null" json:"currency"`
	Balance        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"balance"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"opening_balance"`
	OpeningDate    *time.Time      `json:"opening_date"`
	Version        int             `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}

// CountsToward reports whether a transaction with the given date and
// confirmation state belongs in the cached balance.
func (a *Account) CountsToward(date time.Time, confirmed bool) bool {
	if !confirmed {
		return false
	}
	if a.OpeningDate == nil {
		return true
	}
	return !DateOnly(date).Before(DateOnly(*a.OpeningDate))
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
