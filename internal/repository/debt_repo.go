package repository

import (
	"context"
	"errors"

	"finledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DebtRepository struct {
	db *gorm.DB
}

func NewDebtRepository(db *gorm.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

func (r *DebtRepository) Create(ctx context.Context, tx *gorm.DB, debt *model.Debt) error {
	return pick(r.db, tx).WithContext(ctx).Create(debt).Error
}

func (r *DebtRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Debt, error) {
	var debt model.Debt
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&debt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebtNotFound
		}
		return nil, err
	}
	return &debt, nil
}

func (r *DebtRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Debt, error) {
	var debt model.Debt
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&debt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebtNotFound
		}
		return nil, err
	}
	return &debt, nil
}

func (r *DebtRepository) SetCurrentBalance(ctx context.Context, tx *gorm.DB, debt *model.Debt, balance decimal.Decimal) error {
	err := tx.WithContext(ctx).
		Model(&model.Debt{}).
		Where("id = ?", debt.ID).
		Update("current_balance", balance).Error
	if err != nil {
		return err
	}
	debt.CurrentBalance = balance
	return nil
}

func (r *DebtRepository) Deactivate(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.Debt{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (r *DebtRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&model.Debt{}).Error
}

func (r *DebtRepository) ListActive(ctx context.Context) ([]*model.Debt, error) {
	var debts []*model.Debt
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&debts).Error
	return debts, err
}

func (r *DebtRepository) CreatePayment(ctx context.Context, tx *gorm.DB, payment *model.DebtPayment) error {
	return pick(r.db, tx).WithContext(ctx).Create(payment).Error
}

func (r *DebtRepository) GetPayment(ctx context.Context, tx *gorm.DB, id int64) (*model.DebtPayment, error) {
	var payment model.DebtPayment
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByTransactionID returns nil, nil when the transaction is not a
// debt payment.
func (r *DebtRepository) GetPaymentByTransactionID(ctx context.Context, tx *gorm.DB, transactionID int64) (*model.DebtPayment, error) {
	var payment model.DebtPayment
	err := pick(r.db, tx).WithContext(ctx).Where("transaction_id = ?", transactionID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *DebtRepository) DeletePayment(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&model.DebtPayment{}).Error
}

func (r *DebtRepository) CountPayments(ctx context.Context, tx *gorm.DB, debtID int64) (int64, error) {
	var count int64
	err := pick(r.db, tx).WithContext(ctx).Model(&model.DebtPayment{}).Where("debt_id = ?", debtID).Count(&count).Error
	return count, err
}

func (r *DebtRepository) ListPayments(ctx context.Context, debtID int64) ([]*model.DebtPayment, error) {
	var payments []*model.DebtPayment
	err := r.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}
