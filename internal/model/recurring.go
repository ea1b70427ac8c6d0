package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PatternDaily   = "daily"
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
	PatternYearly  = "yearly"
)

// RecurringTemplate generates pending transactions. Amount is stored signed
// but materialization re-derives the sign from the type's category.
type RecurringTemplate struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string          `gorm:"type:varchar(128);not null" json:"name"`
	AccountID         int64           `gorm:"index;not null" json:"account_id"`
	TypeID            int64           `gorm:"not null" json:"type_id"`
	SubtypeID         *int64          `json:"subtype_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description       string          `gorm:"type:varchar(256)" json:"description"`
	Pattern           string          `gorm:"column:recurrence_pattern;type:varchar(16);not null" json:"recurrence_pattern"`
	Interval          int             `gorm:"column:recurrence_interval;not null" json:"recurrence_interval"`
	DayOfMonth        int             `json:"day_of_month"`
	StartDate         time.Time       `gorm:"not null" json:"start_date"`
	EndDate           *time.Time      `json:"end_date"`
	Active            bool            `gorm:"not null" json:"active"`
	LastGeneratedDate *time.Time      `json:"last_generated_date"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RecurringTemplate) TableName() string {
	return "recurring_template"
}
