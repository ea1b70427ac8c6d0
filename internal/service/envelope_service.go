package service

import (
	"context"
	"fmt"
	"time"

	"finledger/internal/config"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EnvelopeService manages virtual savings buckets. Nothing here touches an
// account balance.
type EnvelopeService struct {
	*core
}

func NewEnvelopeService(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *EnvelopeService {
	return &EnvelopeService{core: newCore(db, locker, cfg, log.With().Str("component", "envelope").Logger())}
}

type CreateEnvelopeRequest struct {
	Name         string          `json:"name" binding:"required"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

func (s *EnvelopeService) CreateEnvelope(ctx context.Context, req *CreateEnvelopeRequest) (*model.Envelope, error) {
	if req.TargetAmount.IsNegative() {
		return nil, fmt.Errorf("%w: target must not be negative", ErrInvalidAmount)
	}
	envelope := &model.Envelope{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: decimal.Zero,
	}
	if err := s.envelopeRepo.Create(ctx, nil, envelope); err != nil {
		return nil, fmt.Errorf("create envelope: %w", err)
	}
	return envelope, nil
}

type AllocateRequest struct {
	EnvelopeID    int64           `json:"envelope_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID *int64          `json:"transaction_id"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
}

// Allocate adds a signed entry to an envelope (negative withdraws). The
// linked transaction, when given, must exist but is never modified.
func (s *EnvelopeService) Allocate(ctx context.Context, req *AllocateRequest) (*model.EnvelopeTransaction, error) {
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidAmount)
	}
	date := req.Date
	if date.IsZero() {
		date = s.today()
	}

	release, err := s.locker.Acquire(ctx, lock.EnvelopeKey(req.EnvelopeID))
	if err != nil {
		return nil, fmt.Errorf("acquire envelope lock: %w", err)
	}
	defer release()

	var entry *model.EnvelopeTransaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		envelope, err := s.envelopeRepo.GetByIDForUpdate(ctx, tx, req.EnvelopeID)
		if err != nil {
			return err
		}
		if req.TransactionID != nil {
			if _, err := s.transactionRepo.GetByID(ctx, tx, *req.TransactionID); err != nil {
				return err
			}
		}

		entry = &model.EnvelopeTransaction{
			EnvelopeID:    envelope.ID,
			Amount:        req.Amount,
			Date:          model.DateOnly(date),
			Description:   req.Description,
			TransactionID: req.TransactionID,
		}
		if err := s.envelopeRepo.CreateEntry(ctx, tx, entry); err != nil {
			return fmt.Errorf("create envelope entry: %w", err)
		}
		return s.envelopeRepo.SetCurrentAmount(ctx, tx, envelope, envelope.CurrentAmount.Add(req.Amount))
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int64("envelope_id", req.EnvelopeID).Str("amount", req.Amount.String()).Msg("envelope allocation")
	return entry, nil
}

// DeleteEnvelopeTransaction removes one entry and takes its amount back out
// of the envelope.
func (s *EnvelopeService) DeleteEnvelopeTransaction(ctx context.Context, entryID int64) error {
	entry, err := s.envelopeRepo.GetEntry(ctx, nil, entryID)
	if err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, lock.EnvelopeKey(entry.EnvelopeID))
	if err != nil {
		return fmt.Errorf("acquire envelope lock: %w", err)
	}
	defer release()

	return s.db.Transaction(func(tx *gorm.DB) error {
		envelope, err := s.envelopeRepo.GetByIDForUpdate(ctx, tx, entry.EnvelopeID)
		if err != nil {
			return err
		}
		current, err := s.envelopeRepo.GetEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if err := s.envelopeRepo.DeleteEntry(ctx, tx, current.ID); err != nil {
			return fmt.Errorf("delete envelope entry: %w", err)
		}
		return s.envelopeRepo.SetCurrentAmount(ctx, tx, envelope, envelope.CurrentAmount.Sub(current.Amount))
	})
}

func (s *EnvelopeService) GetEnvelope(ctx context.Context, id int64) (*model.Envelope, error) {
	return s.envelopeRepo.GetByID(ctx, nil, id)
}

func (s *EnvelopeService) ListEnvelopes(ctx context.Context) ([]*model.Envelope, error) {
	return s.envelopeRepo.List(ctx)
}

func (s *EnvelopeService) ListEntries(ctx context.Context, envelopeID int64) ([]*model.EnvelopeTransaction, error) {
	if _, err := s.envelopeRepo.GetByID(ctx, nil, envelopeID); err != nil {
		return nil, err
	}
	return s.envelopeRepo.ListEntries(ctx, nil, envelopeID)
}
