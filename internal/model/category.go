package model

// Category kinds. The kind of a transaction type decides the sign of every
// amount posted under it.
const (
	CategoryExpense  = "expense"
	CategoryIncome   = "income"
	CategoryTransfer = "transfer"
)

// ValidCategory reports whether c is a known category kind.
func ValidCategory(c string) bool {
	switch c {
	case CategoryExpense, CategoryIncome, CategoryTransfer:
		return true
	}
	return false
}

type TransactionType struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Category string `gorm:"type:varchar(16);not null" json:"category"`
}

func (TransactionType) TableName() string {
	return "transaction_type"
}

type TransactionSubtype struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TypeID int64  `gorm:"index;not null" json:"type_id"`
	Name   string `gorm:"type:varchar(64);not null" json:"name"`
}

func (TransactionSubtype) TableName() string {
	return "transaction_subtype"
}
