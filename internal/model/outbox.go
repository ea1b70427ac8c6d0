package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

const (
	EventTransactionPosted    = "ledger.transaction_posted"
	EventTransactionConfirmed = "ledger.transaction_confirmed"
	EventTransactionUpdated   = "ledger.transaction_updated"
	EventTransactionDeleted   = "ledger.transaction_deleted"
	EventTransferPosted       = "ledger.transfer_posted"
	EventTransferDeleted      = "ledger.transfer_deleted"
	EventDebtPaymentPosted    = "ledger.debt_payment_posted"
	EventDebtPaymentDeleted   = "ledger.debt_payment_deleted"
	EventBalanceDrift         = "ledger.balance_drift"
)

// OutboxMessage is written in the same database transaction as the change
// it describes and later relayed to Kafka by the outbox sender.
type OutboxMessage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"message_key"`
	EventType  string    `gorm:"type:varchar(64);not null" json:"event_type"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}

// All returns every table model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Currency{},
		&TransactionType{},
		&TransactionSubtype{},
		&Account{},
		&Transaction{},
		&Transfer{},
		&Debt{},
		&DebtPayment{},
		&Envelope{},
		&EnvelopeTransaction{},
		&RecurringTemplate{},
		&OutboxMessage{},
	}
}
