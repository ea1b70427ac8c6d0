package service

import (
	"context"
	"fmt"
	"time"

	"finledger/internal/config"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/model"
	"finledger/internal/repository"
	"finledger/pkg/idgen"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService posts, confirms, edits and deletes single transactions.
type LedgerService struct {
	*core
}

func NewLedgerService(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *LedgerService {
	return &LedgerService{core: newCore(db, locker, cfg, log.With().Str("component", "ledger").Logger())}
}

type PostTransactionRequest struct {
	AccountID   int64           `json:"account_id" binding:"required"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	TypeID      *int64          `json:"type_id"`
	SubtypeID   *int64          `json:"subtype_id"`
	Description string          `json:"description"`
	Confirmed   bool            `json:"confirmed"`
}

// PostTransaction inserts a signed transaction and, when it is confirmed,
// moves the cached account balance by the stored amount. An amount in a
// currency other than the account's is converted at the current rate and
// the original kept for audit.
func (s *LedgerService) PostTransaction(ctx context.Context, req *PostTransactionRequest) (*model.Transaction, error) {
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidAmount)
	}
	// The caller's signed amount is kept as given, but only when it agrees
	// with the type's category; a mismatched sign is ErrInvalidAmount.
	if err := s.checkCategory(ctx, req.TypeID, req.SubtypeID, req.Amount); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.today()
	}

	release, err := s.lockAccounts(ctx, []int64{req.AccountID})
	if err != nil {
		return nil, err
	}
	defer release()

	var trans *model.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, req.AccountID)
		if err != nil {
			return err
		}

		trans = &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			AccountID:     account.ID,
			Date:          model.DateOnly(date),
			Amount:        req.Amount,
			Currency:      account.Currency,
			TypeID:        req.TypeID,
			SubtypeID:     req.SubtypeID,
			Description:   req.Description,
			Confirmed:     req.Confirmed,
			Source:        model.TransactionSourceManual,
		}

		currency := model.NormalizeCurrency(req.Currency)
		if currency != "" && currency != model.NormalizeCurrency(account.Currency) {
			rates, err := s.currencyRepo.RateTable(ctx, tx)
			if err != nil {
				return fmt.Errorf("load rates: %w", err)
			}
			converted, err := ConvertCurrency(req.Amount, currency, account.Currency, rates)
			if err != nil {
				return err
			}
			converted = RoundMoney(converted)
			if converted.IsZero() {
				return fmt.Errorf("%w: converted amount rounds to zero", ErrInvalidAmount)
			}
			trans.Amount = converted
			trans.OriginalAmount = decimal.NewNullDecimal(req.Amount)
			trans.OriginalCurrency = currency
		}

		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if err := s.applyEffect(ctx, tx, account, trans, 1); err != nil {
			return err
		}
		return s.emit(ctx, tx, model.EventTransactionPosted, trans.TransactionNo, transactionEvent(trans, account))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("transaction_id", trans.ID).
		Int64("account_id", trans.AccountID).
		Str("amount", trans.Amount.String()).
		Bool("confirmed", trans.Confirmed).
		Msg("transaction posted")
	return trans, nil
}

// checkCategory verifies the type exists, the subtype belongs to it, and
// the signed amount agrees with the type's category.
func (s *LedgerService) checkCategory(ctx context.Context, typeID, subtypeID *int64, amount decimal.Decimal) error {
	if typeID == nil {
		if subtypeID != nil {
			return fmt.Errorf("%w: subtype given without type", ErrInvalidRequest)
		}
		return nil
	}

	typ, err := s.categoryRepo.GetType(ctx, nil, *typeID)
	if err != nil {
		return err
	}
	if !amount.Equal(SignedAmount(typ.Category, amount)) {
		return fmt.Errorf("%w: sign of %s does not match %s category", ErrInvalidAmount, amount, typ.Category)
	}

	return s.checkSubtype(ctx, typ, subtypeID)
}

// DeleteTransaction removes a transaction and reverses exactly the stored
// amount. A transfer leg takes its whole transfer with it; a debt payment
// transaction takes its payment and restores the debt balance.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	trans, err := s.transactionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}

	if trans.IsTransferLeg() {
		return s.removeTransfer(ctx, *trans.TransferID)
	}

	payment, err := s.debtRepo.GetPaymentByTransactionID(ctx, nil, trans.ID)
	if err != nil {
		return fmt.Errorf("look up debt payment: %w", err)
	}
	if payment != nil {
		return s.removePayment(ctx, payment, trans.AccountID)
	}

	release, err := s.lockAccounts(ctx, []int64{trans.AccountID})
	if err != nil {
		return err
	}
	defer release()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.transactionRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, current.AccountID)
		if err != nil {
			return err
		}

		if err := s.applyEffect(ctx, tx, account, current, -1); err != nil {
			return err
		}
		if err := s.envelopeRepo.UnlinkTransaction(ctx, tx, current.ID); err != nil {
			return fmt.Errorf("unlink envelope entries: %w", err)
		}
		if err := s.transactionRepo.Delete(ctx, tx, current.ID); err != nil {
			return err
		}
		return s.emit(ctx, tx, model.EventTransactionDeleted, current.TransactionNo, transactionEvent(current, account))
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("transaction_id", id).Int64("account_id", trans.AccountID).Msg("transaction deleted")
	return nil
}

// ConfirmTransaction turns a pending transaction into a confirmed one and
// applies its balance effect. Both legs of a transfer are confirmed
// together. Confirming a confirmed transaction is a no-op.
func (s *LedgerService) ConfirmTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	trans, err := s.transactionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if trans.Confirmed {
		return trans, nil
	}

	var transfer *model.Transfer
	ids := []int64{trans.AccountID}
	if trans.IsTransferLeg() {
		transfer, err = s.transferRepo.GetByID(ctx, nil, *trans.TransferID)
		if err != nil {
			return nil, err
		}
		ids = []int64{transfer.SourceAccountID, transfer.DestAccountID}
	}

	release, err := s.lockAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		legIDs := []int64{id}
		if transfer != nil {
			legIDs = []int64{transfer.SourceTransactionID, transfer.DestTransactionID}
			if err := s.transferRepo.SetConfirmed(ctx, tx, transfer.ID); err != nil {
				return fmt.Errorf("confirm transfer: %w", err)
			}
		}

		accounts, err := s.accountRepo.LockForUpdate(ctx, tx, ids...)
		if err != nil {
			return err
		}

		for _, legID := range legIDs {
			leg, err := s.transactionRepo.GetByID(ctx, tx, legID)
			if err != nil {
				return err
			}
			if leg.Confirmed {
				continue
			}
			if err := s.transactionRepo.SetConfirmed(ctx, tx, leg.ID); err != nil {
				return fmt.Errorf("confirm transaction: %w", err)
			}
			leg.Confirmed = true
			if err := s.applyEffect(ctx, tx, accounts[leg.AccountID], leg, 1); err != nil {
				return err
			}
			if leg.ID == id {
				trans = leg
			}
		}
		return s.emit(ctx, tx, model.EventTransactionConfirmed, trans.TransactionNo, transactionEvent(trans, accounts[trans.AccountID]))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("transaction_id", id).Int64("account_id", trans.AccountID).Msg("transaction confirmed")
	return trans, nil
}

// UpdateTransactionRequest carries optional edits; nil fields are kept.
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Date        *time.Time       `json:"date"`
	Description *string          `json:"description"`
	Confirmed   *bool            `json:"confirmed"`
}

// UpdateTransaction edits a standalone transaction. The old balance effect
// is reversed and the new one applied in the same database transaction.
// Transfer legs and debt payment transactions cannot be edited in place.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, req *UpdateTransactionRequest) (*model.Transaction, error) {
	trans, err := s.transactionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if trans.IsTransferLeg() {
		return nil, ErrImmutable
	}
	payment, err := s.debtRepo.GetPaymentByTransactionID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("look up debt payment: %w", err)
	}
	if payment != nil {
		return nil, ErrImmutable
	}

	if req.Amount != nil {
		if req.Amount.IsZero() {
			return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidAmount)
		}
		if err := s.checkCategory(ctx, trans.TypeID, trans.SubtypeID, *req.Amount); err != nil {
			return nil, err
		}
	}

	release, err := s.lockAccounts(ctx, []int64{trans.AccountID})
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.transactionRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, current.AccountID)
		if err != nil {
			return err
		}

		if err := s.applyEffect(ctx, tx, account, current, -1); err != nil {
			return err
		}

		if req.Amount != nil {
			current.Amount = *req.Amount
			current.OriginalAmount = decimal.NullDecimal{}
			current.OriginalCurrency = ""
		}
		if req.Date != nil {
			current.Date = model.DateOnly(*req.Date)
		}
		if req.Description != nil {
			current.Description = *req.Description
		}
		if req.Confirmed != nil {
			current.Confirmed = *req.Confirmed
		}

		if err := s.transactionRepo.Save(ctx, tx, current); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		if err := s.applyEffect(ctx, tx, account, current, 1); err != nil {
			return err
		}
		trans = current
		return s.emit(ctx, tx, model.EventTransactionUpdated, current.TransactionNo, transactionEvent(current, account))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("transaction_id", id).Str("amount", trans.Amount.String()).Msg("transaction updated")
	return trans, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, nil, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, filter repository.TransactionFilter, page, pageSize int) ([]*model.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	return s.transactionRepo.List(ctx, filter, page, pageSize)
}

func transactionEvent(trans *model.Transaction, account *model.Account) map[string]interface{} {
	event := map[string]interface{}{
		"transaction_id": trans.ID,
		"account_id":     trans.AccountID,
		"date":           trans.Date.Format("2006-01-02"),
		"amount":         trans.Amount,
		"currency":       trans.Currency,
		"confirmed":      trans.Confirmed,
		"source":         trans.Source,
	}
	if account != nil {
		event["balance"] = account.Balance
	}
	return event
}
