package repository

import (
	"context"
	"errors"

	"finledger/internal/model"

	"gorm.io/gorm"
)

type TransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, tx *gorm.DB, transfer *model.Transfer) error {
	return pick(r.db, tx).WithContext(ctx).Create(transfer).Error
}

func (r *TransferRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Transfer, error) {
	var transfer model.Transfer
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&transfer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

func (r *TransferRepository) SetConfirmed(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.Transfer{}).
		Where("id = ?", id).
		Update("confirmed", true).Error
}

func (r *TransferRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&model.Transfer{}).Error
}
