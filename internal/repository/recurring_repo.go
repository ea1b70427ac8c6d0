package repository

import (
	"context"
	"errors"
	"time"

	"finledger/internal/model"

	"gorm.io/gorm"
)

type RecurringRepository struct {
	db *gorm.DB
}

func NewRecurringRepository(db *gorm.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(ctx context.Context, tx *gorm.DB, template *model.RecurringTemplate) error {
	return pick(r.db, tx).WithContext(ctx).Create(template).Error
}

func (r *RecurringRepository) Save(ctx context.Context, tx *gorm.DB, template *model.RecurringTemplate) error {
	return pick(r.db, tx).WithContext(ctx).Save(template).Error
}

func (r *RecurringRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.RecurringTemplate, error) {
	var template model.RecurringTemplate
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}

func (r *RecurringRepository) ListActive(ctx context.Context) ([]*model.RecurringTemplate, error) {
	var templates []*model.RecurringTemplate
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&templates).Error
	return templates, err
}

func (r *RecurringRepository) MarkGenerated(ctx context.Context, tx *gorm.DB, id int64, date time.Time) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.RecurringTemplate{}).
		Where("id = ?", id).
		Update("last_generated_date", date).Error
}

func (r *RecurringRepository) Deactivate(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.RecurringTemplate{}).
		Where("id = ?", id).
		Update("active", false).Error
}
