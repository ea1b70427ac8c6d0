package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Envelope is a virtual savings bucket. CurrentAmount is the sum of its
// EnvelopeTransaction rows and has no effect on any account balance.
type Envelope struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"type:varchar(128);not null" json:"name"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"current_amount"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Envelope) TableName() string {
	return "envelope"
}

// EnvelopeTransaction moves money into (positive) or out of (negative) an
// envelope. TransactionID is an optional, informational link.
type EnvelopeTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	EnvelopeID    int64           `gorm:"index;not null" json:"envelope_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Date          time.Time       `gorm:"column:entry_date;not null" json:"date"`
	Description   string          `gorm:"type:varchar(256)" json:"description"`
	TransactionID *int64          `gorm:"index" json:"transaction_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (EnvelopeTransaction) TableName() string {
	return "envelope_transaction"
}
