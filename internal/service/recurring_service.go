package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finledger/internal/config"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/model"
	"finledger/pkg/idgen"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxCatchUpDays bounds how far back a sweep looks for missed occurrences.
const maxCatchUpDays = 366

type RecurringService struct {
	*core
}

func NewRecurringService(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *RecurringService {
	return &RecurringService{core: newCore(db, locker, cfg, log.With().Str("component", "recurring").Logger())}
}

type CreateTemplateRequest struct {
	Name        string          `json:"name" binding:"required"`
	AccountID   int64           `json:"account_id" binding:"required"`
	TypeID      int64           `json:"type_id" binding:"required"`
	SubtypeID   *int64          `json:"subtype_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Pattern     string          `json:"recurrence_pattern" binding:"required"`
	Interval    int             `json:"recurrence_interval"`
	DayOfMonth  int             `json:"day_of_month"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
}

// CreateTemplate stores a template with its amount signed from the type's
// category.
func (s *RecurringService) CreateTemplate(ctx context.Context, req *CreateTemplateRequest) (*model.RecurringTemplate, error) {
	interval := req.Interval
	if interval == 0 {
		interval = 1
	}
	if err := validateSchedule(req.Pattern, interval, req.DayOfMonth, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidAmount)
	}
	if _, err := s.accountRepo.GetByID(ctx, nil, req.AccountID); err != nil {
		return nil, err
	}
	typ, err := s.categoryRepo.GetType(ctx, nil, req.TypeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSubtype(ctx, typ, req.SubtypeID); err != nil {
		return nil, err
	}

	template := &model.RecurringTemplate{
		Name:        req.Name,
		AccountID:   req.AccountID,
		TypeID:      typ.ID,
		SubtypeID:   req.SubtypeID,
		Amount:      SignedAmount(typ.Category, req.Amount),
		Description: req.Description,
		Pattern:     req.Pattern,
		Interval:    interval,
		DayOfMonth:  req.DayOfMonth,
		StartDate:   model.DateOnly(req.StartDate),
		EndDate:     dateOnlyPtr(req.EndDate),
		Active:      true,
	}
	if err := s.recurringRepo.Create(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("create recurring template: %w", err)
	}

	s.log.Info().Int64("template_id", template.ID).Str("pattern", template.Pattern).Msg("recurring template created")
	return template, nil
}

type UpdateTemplateRequest struct {
	Name        *string          `json:"name"`
	TypeID      *int64           `json:"type_id"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Pattern     *string          `json:"recurrence_pattern"`
	Interval    *int             `json:"recurrence_interval"`
	DayOfMonth  *int             `json:"day_of_month"`
	EndDate     *time.Time       `json:"end_date"`
	Active      *bool            `json:"active"`
}

// UpdateTemplate edits a template. The stored sign is re-derived from the
// (possibly new) type whatever sign the caller sent.
func (s *RecurringService) UpdateTemplate(ctx context.Context, id int64, req *UpdateTemplateRequest) (*model.RecurringTemplate, error) {
	template, err := s.recurringRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.TypeID != nil {
		template.TypeID = *req.TypeID
		template.SubtypeID = nil
	}
	if req.Amount != nil {
		if req.Amount.IsZero() {
			return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidAmount)
		}
		template.Amount = *req.Amount
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Pattern != nil {
		template.Pattern = *req.Pattern
	}
	if req.Interval != nil {
		template.Interval = *req.Interval
	}
	if req.DayOfMonth != nil {
		template.DayOfMonth = *req.DayOfMonth
	}
	if req.EndDate != nil {
		template.EndDate = dateOnlyPtr(req.EndDate)
	}
	if req.Active != nil {
		template.Active = *req.Active
	}

	if err := validateSchedule(template.Pattern, template.Interval, template.DayOfMonth, template.StartDate, template.EndDate); err != nil {
		return nil, err
	}
	typ, err := s.categoryRepo.GetType(ctx, nil, template.TypeID)
	if err != nil {
		return nil, err
	}
	template.Amount = SignedAmount(typ.Category, template.Amount)

	if err := s.recurringRepo.Save(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("save recurring template: %w", err)
	}
	return template, nil
}

func (s *RecurringService) DeactivateTemplate(ctx context.Context, id int64) error {
	if _, err := s.recurringRepo.GetByID(ctx, nil, id); err != nil {
		return err
	}
	return s.recurringRepo.Deactivate(ctx, nil, id)
}

func (s *RecurringService) GetTemplate(ctx context.Context, id int64) (*model.RecurringTemplate, error) {
	return s.recurringRepo.GetByID(ctx, nil, id)
}

func (s *RecurringService) ListTemplates(ctx context.Context) ([]*model.RecurringTemplate, error) {
	return s.recurringRepo.ListActive(ctx)
}

// Materialize creates the pending transaction for asOf when it is a due
// occurrence of the template. It returns nil when the template is inactive,
// not due, or the occurrence already exists. It leaves the sweep watermark
// alone, so a later Sweep still covers every earlier date.
func (s *RecurringService) Materialize(ctx context.Context, templateID int64, asOf time.Time) (*model.Transaction, error) {
	template, err := s.recurringRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		return nil, err
	}
	if !template.Active || !IsDue(template, asOf) {
		return nil, nil
	}
	typ, err := s.categoryRepo.GetType(ctx, nil, template.TypeID)
	if err != nil {
		return nil, err
	}
	return s.materialize(ctx, template, typ, model.DateOnly(asOf), false)
}

// materialize creates the occurrence for day unless it already exists. With
// advance set the template's sweep watermark moves to day; only Sweep,
// which visits every earlier date, passes it.
func (s *RecurringService) materialize(ctx context.Context, template *model.RecurringTemplate, typ *model.TransactionType, day time.Time, advance bool) (*model.Transaction, error) {
	// The stored sign is not trusted: older rows may carry a stale one.
	amount := SignedAmount(typ.Category, template.Amount)
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: template %d has a zero amount", ErrInvalidAmount, template.ID)
	}

	release, err := s.locker.Acquire(ctx, lock.RecurringKey(template.ID))
	if err != nil {
		return nil, fmt.Errorf("acquire recurring lock: %w", err)
	}
	defer release()

	var created *model.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.transactionRepo.FindOccurrence(ctx, tx, template.ID, day)
		if err != nil {
			return fmt.Errorf("look up occurrence: %w", err)
		}

		occurrence := day
		if existing == nil {
			account, err := s.accountRepo.GetByID(ctx, tx, template.AccountID)
			if err != nil {
				return err
			}

			templateID, typeID := template.ID, typ.ID
			created = &model.Transaction{
				TransactionNo:       idgen.GenerateTransactionNo(),
				AccountID:           account.ID,
				Date:                day,
				Amount:              amount,
				Currency:            account.Currency,
				TypeID:              &typeID,
				SubtypeID:           template.SubtypeID,
				Description:         template.Description,
				Confirmed:           false,
				RecurringTemplateID: &templateID,
				OccurrenceDate:      &occurrence,
				Source:              model.TransactionSourceRecurring,
			}
			if err := s.transactionRepo.Create(ctx, tx, created); err != nil {
				return fmt.Errorf("create recurring transaction: %w", err)
			}
		}

		if advance && (template.LastGeneratedDate == nil || template.LastGeneratedDate.Before(day)) {
			if err := s.recurringRepo.MarkGenerated(ctx, tx, template.ID, day); err != nil {
				return fmt.Errorf("mark template generated: %w", err)
			}
			template.LastGeneratedDate = &occurrence
		}

		if created == nil {
			return nil
		}
		return s.emit(ctx, tx, model.EventTransactionPosted, created.TransactionNo, transactionEvent(created, nil))
	})
	if err != nil {
		return nil, err
	}

	if created != nil {
		s.log.Info().
			Int64("template_id", template.ID).
			Int64("transaction_id", created.ID).
			Str("date", day.Format("2006-01-02")).
			Str("amount", created.Amount.String()).
			Msg("recurring transaction materialized")
	}
	return created, nil
}

// Sweep materializes every due occurrence of every active template up to
// asOf, starting the day after each template's last generated date. Errors
// on one template do not stop the others.
func (s *RecurringService) Sweep(ctx context.Context, asOf time.Time) ([]*model.Transaction, error) {
	asOf = model.DateOnly(asOf)
	templates, err := s.recurringRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}

	var created []*model.Transaction
	var errs []error
	for _, template := range templates {
		typ, err := s.categoryRepo.GetType(ctx, nil, template.TypeID)
		if err != nil {
			errs = append(errs, fmt.Errorf("template %d: %w", template.ID, err))
			continue
		}

		for day := sweepStart(template, asOf); !day.After(asOf); day = day.AddDate(0, 0, 1) {
			if err := ctx.Err(); err != nil {
				return created, err
			}
			if !IsDue(template, day) {
				continue
			}
			trans, err := s.materialize(ctx, template, typ, day, true)
			if err != nil {
				s.log.Error().Err(err).Int64("template_id", template.ID).Msg("materialize failed")
				errs = append(errs, fmt.Errorf("template %d: %w", template.ID, err))
				break
			}
			if trans != nil {
				created = append(created, trans)
			}
		}
	}
	return created, errors.Join(errs...)
}

func sweepStart(template *model.RecurringTemplate, asOf time.Time) time.Time {
	start := model.DateOnly(template.StartDate)
	if template.LastGeneratedDate != nil {
		next := model.DateOnly(*template.LastGeneratedDate).AddDate(0, 0, 1)
		if next.After(start) {
			start = next
		}
	}
	if floor := asOf.AddDate(0, 0, -maxCatchUpDays); start.Before(floor) {
		start = floor
	}
	return start
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.DateOnly(*t)
	return &d
}
