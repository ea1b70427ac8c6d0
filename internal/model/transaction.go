package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionSourceManual      = "MANUAL"
	TransactionSourceTransfer    = "TRANSFER"
	TransactionSourceDebtPayment = "DEBT_PAYMENT"
	TransactionSourceRecurring   = "RECURRING"
)

// Transaction is one signed ledger row: negative amounts leave the account,
// positive amounts enter it. Amount is always in the account's currency;
// OriginalAmount/OriginalCurrency keep what the caller sent when the engine
// had to convert.
//
// Only confirmed rows count toward Account.Balance. Pending rows are
// placeholders, typically materialized from a recurring template.
type Transaction struct {
	ID                  int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo       string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	AccountID           int64               `gorm:"index;not null" json:"account_id"`
	Date                time.Time           `gorm:"column:transaction_date;index;not null" json:"date"`
	Amount              decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency            string              `gorm:"type:varchar(8);not null" json:"currency"`
	OriginalAmount      decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"original_amount"`
	OriginalCurrency    string              `gorm:"type:varchar(8)" json:"original_currency,omitempty"`
	TypeID              *int64              `gorm:"index" json:"type_id"`
	SubtypeID           *int64              `json:"subtype_id"`
	Description         string              `gorm:"type:varchar(256)" json:"description"`
	Confirmed           bool                `gorm:"not null" json:"confirmed"`
	TransferAccountID   *int64              `json:"transfer_account_id"`
	TransferAmount      decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"transfer_amount"`
	TransferID          *int64              `gorm:"index" json:"transfer_id"`
	RecurringTemplateID *int64              `gorm:"uniqueIndex:idx_recurring_occurrence" json:"recurring_template_id"`
	OccurrenceDate      *time.Time          `gorm:"uniqueIndex:idx_recurring_occurrence" json:"occurrence_date"`
	Source              string              `gorm:"type:varchar(20);not null" json:"source"`
	CreatedAt           time.Time           `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "account_transaction"
}

// IsTransferLeg reports whether the row belongs to a Transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.TransferID != nil
}
