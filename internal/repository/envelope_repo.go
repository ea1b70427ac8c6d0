package repository

import (
	"context"
	"errors"

	"finledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnvelopeRepository struct {
	db *gorm.DB
}

func NewEnvelopeRepository(db *gorm.DB) *EnvelopeRepository {
	return &EnvelopeRepository{db: db}
}

func (r *EnvelopeRepository) Create(ctx context.Context, tx *gorm.DB, envelope *model.Envelope) error {
	return pick(r.db, tx).WithContext(ctx).Create(envelope).Error
}

func (r *EnvelopeRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Envelope, error) {
	var envelope model.Envelope
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&envelope).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnvelopeNotFound
		}
		return nil, err
	}
	return &envelope, nil
}

func (r *EnvelopeRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Envelope, error) {
	var envelope model.Envelope
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&envelope).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnvelopeNotFound
		}
		return nil, err
	}
	return &envelope, nil
}

func (r *EnvelopeRepository) List(ctx context.Context) ([]*model.Envelope, error) {
	var envelopes []*model.Envelope
	err := r.db.WithContext(ctx).Order("id ASC").Find(&envelopes).Error
	return envelopes, err
}

func (r *EnvelopeRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Envelope{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

func (r *EnvelopeRepository) SetCurrentAmount(ctx context.Context, tx *gorm.DB, envelope *model.Envelope, amount decimal.Decimal) error {
	err := tx.WithContext(ctx).
		Model(&model.Envelope{}).
		Where("id = ?", envelope.ID).
		Update("current_amount", amount).Error
	if err != nil {
		return err
	}
	envelope.CurrentAmount = amount
	return nil
}

func (r *EnvelopeRepository) CreateEntry(ctx context.Context, tx *gorm.DB, entry *model.EnvelopeTransaction) error {
	return pick(r.db, tx).WithContext(ctx).Create(entry).Error
}

func (r *EnvelopeRepository) GetEntry(ctx context.Context, tx *gorm.DB, id int64) (*model.EnvelopeTransaction, error) {
	var entry model.EnvelopeTransaction
	err := pick(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *EnvelopeRepository) DeleteEntry(ctx context.Context, tx *gorm.DB, id int64) error {
	return pick(r.db, tx).WithContext(ctx).Where("id = ?", id).Delete(&model.EnvelopeTransaction{}).Error
}

func (r *EnvelopeRepository) ListEntries(ctx context.Context, tx *gorm.DB, envelopeID int64) ([]*model.EnvelopeTransaction, error) {
	var entries []*model.EnvelopeTransaction
	err := pick(r.db, tx).WithContext(ctx).
		Where("envelope_id = ?", envelopeID).
		Order("entry_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// EntrySum is the authoritative value of an envelope's current amount.
func (r *EnvelopeRepository) EntrySum(ctx context.Context, tx *gorm.DB, envelopeID int64) (decimal.Decimal, error) {
	entries, err := r.ListEntries(ctx, tx, envelopeID)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

// UnlinkTransaction clears the informational link from every entry that
// points at transactionID.
func (r *EnvelopeRepository) UnlinkTransaction(ctx context.Context, tx *gorm.DB, transactionID int64) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.EnvelopeTransaction{}).
		Where("transaction_id = ?", transactionID).
		Update("transaction_id", nil).Error
}
