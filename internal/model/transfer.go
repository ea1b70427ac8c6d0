package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer owns the two legs of a move between accounts. Amount leaves the
// source account; TransferAmount (in the destination currency) arrives on
// the destination account. Rate is the snapshot used when the engine did
// the conversion itself.
type Transfer struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransferNo          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transfer_no"`
	SourceAccountID     int64           `gorm:"index;not null" json:"source_account_id"`
	DestAccountID       int64           `gorm:"index;not null" json:"dest_account_id"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	TransferAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"transfer_amount"`
	Rate                decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"rate"`
	Date                time.Time       `gorm:"column:transfer_date;not null" json:"date"`
	Confirmed           bool            `gorm:"not null" json:"confirmed"`
	Description         string          `gorm:"type:varchar(256)" json:"description"`
	SourceTransactionID int64           `gorm:"not null" json:"source_transaction_id"`
	DestTransactionID   int64           `gorm:"not null" json:"dest_transaction_id"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Transfer) TableName() string {
	return "transfer"
}
