package repository

import (
	"context"
	"errors"

	"finledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CurrencyRepository struct {
	db *gorm.DB
}

func NewCurrencyRepository(db *gorm.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// Upsert inserts the currency or replaces name, symbol and rate.
func (r *CurrencyRepository) Upsert(ctx context.Context, tx *gorm.DB, currency *model.Currency) error {
	return pick(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "symbol", "exchange_rate_to_eur", "updated_at"}),
		}).
		Create(currency).Error
}

func (r *CurrencyRepository) Get(ctx context.Context, tx *gorm.DB, code string) (*model.Currency, error) {
	var currency model.Currency
	err := pick(r.db, tx).WithContext(ctx).Where("code = ?", model.NormalizeCurrency(code)).First(&currency).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCurrencyNotFound
		}
		return nil, err
	}
	return &currency, nil
}

func (r *CurrencyRepository) List(ctx context.Context, tx *gorm.DB) ([]*model.Currency, error) {
	var currencies []*model.Currency
	err := pick(r.db, tx).WithContext(ctx).Order("code ASC").Find(&currencies).Error
	return currencies, err
}

// RateTable loads the current rates. The pivot is always present at 1.
func (r *CurrencyRepository) RateTable(ctx context.Context, tx *gorm.DB) (model.RateTable, error) {
	currencies, err := r.List(ctx, tx)
	if err != nil {
		return nil, err
	}
	table := model.NewRateTable(currencies)
	table[model.PivotCurrency] = decimal.NewFromInt(1)
	return table, nil
}
