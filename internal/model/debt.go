package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InterestTypeSimple   = "simple"
	InterestTypeCompound = "compound"
)

const (
	PaymentTypeMonthly = "monthly"
	PaymentTypeExtra   = "extra"
)

// Debt tracks money owed. CurrentBalance only moves through DebtPayment
// rows; InterestRate is an annual percentage (6 means 6%).
type Debt struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Creditor        string          `gorm:"type:varchar(128);not null" json:"creditor"`
	Principal       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"principal"`
	CurrentBalance  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"current_balance"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"interest_rate"`
	InterestType    string          `gorm:"type:varchar(16);not null" json:"interest_type"`
	MonthlyPayment  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"monthly_payment"`
	LinkedAccountID *int64          `gorm:"index" json:"linked_account_id"`
	Currency        string          `gorm:"type:varchar(8);not null" json:"currency"`
	Active          bool            `gorm:"not null" json:"active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Debt) TableName() string {
	return "debt"
}

// DebtPayment splits a cash outflow into interest and principal. For extra
// payments the whole amount is ExtraPayment and reduces the balance.
type DebtPayment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentNo     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_no"`
	DebtID        int64           `gorm:"index;not null" json:"debt_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	PaymentType   string          `gorm:"type:varchar(16);not null" json:"payment_type"`
	TransactionID int64           `gorm:"uniqueIndex;not null" json:"transaction_id"`
	PrincipalPaid decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"principal_paid"`
	InterestPaid  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"interest_paid"`
	ExtraPayment  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"extra_payment"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (DebtPayment) TableName() string {
	return "debt_payment"
}

// BalanceReduction is what the payment took off the debt balance.
func (p *DebtPayment) BalanceReduction() decimal.Decimal {
	return p.PrincipalPaid.Add(p.ExtraPayment)
}
