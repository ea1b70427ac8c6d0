package repository

import (
	"context"
	"errors"

	"finledger/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) CreateType(ctx context.Context, tx *gorm.DB, t *model.TransactionType) error {
	return pick(r.db, tx).WithContext(ctx).Create(t).Error
}

func (r *CategoryRepository) GetType(ctx context.Context, tx *gorm.DB, id int64) (*model.TransactionType, error) {
	var t model.TransactionType
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTypeNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *CategoryRepository) GetTypeByName(ctx context.Context, tx *gorm.DB, name string) (*model.TransactionType, error) {
	var t model.TransactionType
	err := pick(r.db, tx).WithContext(ctx).Where("name = ?", name).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTypeNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *CategoryRepository) ListTypes(ctx context.Context) ([]*model.TransactionType, error) {
	var types []*model.TransactionType
	err := r.db.WithContext(ctx).Order("id ASC").Find(&types).Error
	return types, err
}

func (r *CategoryRepository) CreateSubtype(ctx context.Context, tx *gorm.DB, s *model.TransactionSubtype) error {
	return pick(r.db, tx).WithContext(ctx).Create(s).Error
}

func (r *CategoryRepository) GetSubtype(ctx context.Context, tx *gorm.DB, id int64) (*model.TransactionSubtype, error) {
	var s model.TransactionSubtype
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubtypeNotFound
		}
		return nil, err
	}
	return &s, nil
}
