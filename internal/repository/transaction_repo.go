package repository

import (
	"context"
	"errors"
	"time"

	"finledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	return pick(r.db, tx).WithContext(ctx).Create(trans).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Transaction, error) {
	var trans model.Transaction
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &trans, nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	return pick(r.db, tx).WithContext(ctx).Save(trans).Error
}

func (r *TransactionRepository) SetConfirmed(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", id).
		Update("confirmed", true).Error
}

func (r *TransactionRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	result := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&model.Transaction{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) SetTransferID(ctx context.Context, tx *gorm.DB, ids []int64, transferID int64) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id IN ?", ids).
		Update("transfer_id", transferID).Error
}

// ConfirmedSum adds up every confirmed row of the account that counts
// toward its balance. Summing happens in decimal, not in SQL, so the result
// is exact on every driver.
func (r *TransactionRepository) ConfirmedSum(ctx context.Context, tx *gorm.DB, account *model.Account) (decimal.Decimal, error) {
	var rows []*model.Transaction
	err := pick(r.db, tx).WithContext(ctx).
		Select("id", "amount", "transaction_date", "confirmed").
		Where("account_id = ? AND confirmed = ?", account.ID, true).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, row := range rows {
		if account.CountsToward(row.Date, row.Confirmed) {
			sum = sum.Add(row.Amount)
		}
	}
	return sum, nil
}

// FindOccurrence returns the row materialized from template for date, or
// nil when none exists.
func (r *TransactionRepository) FindOccurrence(ctx context.Context, tx *gorm.DB, templateID int64, date time.Time) (*model.Transaction, error) {
	var trans model.Transaction
	err := pick(r.db, tx).WithContext(ctx).
		Where("recurring_template_id = ? AND occurrence_date = ?", templateID, date).
		First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trans, nil
}

type TransactionFilter struct {
	AccountID int64
	From      *time.Time
	To        *time.Time
	Pending   *bool
}

func (r *TransactionRepository) List(ctx context.Context, filter TransactionFilter, page, pageSize int) ([]*model.Transaction, int64, error) {
	var transactions []*model.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Transaction{})
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", model.DateOnly(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", model.DateOnly(*filter.To))
	}
	if filter.Pending != nil {
		query = query.Where("confirmed = ?", !*filter.Pending)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("transaction_date DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}
