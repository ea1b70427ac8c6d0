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

// rateScale is the number of decimal places kept on a transfer's rate
// snapshot.
const rateScale = 10

type TransferService struct {
	*core
}

func NewTransferService(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *TransferService {
	return &TransferService{core: newCore(db, locker, cfg, log.With().Str("component", "transfer").Logger())}
}

// PostTransferRequest moves Amount (source currency) out of the source
// account. TransferAmount is the destination credit; it may be omitted,
// in which case a cross-currency transfer is converted at the current rate.
type PostTransferRequest struct {
	SourceAccountID int64            `json:"source_account_id" binding:"required"`
	DestAccountID   int64            `json:"dest_account_id" binding:"required"`
	Amount          decimal.Decimal  `json:"amount"`
	TransferAmount  *decimal.Decimal `json:"transfer_amount"`
	TypeID          *int64           `json:"type_id"`
	Date            time.Time        `json:"date"`
	Description     string           `json:"description"`
	Confirmed       *bool            `json:"confirmed"`
}

// PostTransfer creates a Transfer and both of its legs in one database
// transaction. Missing accounts fail with both ErrInvalidTransfer and
// ErrAccountNotFound.
func (s *TransferService) PostTransfer(ctx context.Context, req *PostTransferRequest) (*model.Transfer, error) {
	if req.SourceAccountID == req.DestAccountID {
		return nil, fmt.Errorf("%w: source and destination are the same account", ErrInvalidTransfer)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidTransfer)
	}
	if req.TransferAmount != nil && !req.TransferAmount.IsPositive() {
		return nil, fmt.Errorf("%w: transfer amount must be positive", ErrInvalidTransfer)
	}
	if req.TypeID != nil {
		typ, err := s.categoryRepo.GetType(ctx, nil, *req.TypeID)
		if err != nil {
			return nil, err
		}
		if typ.Category != model.CategoryTransfer {
			return nil, fmt.Errorf("%w: type %q is not a transfer type", ErrInvalidTransfer, typ.Name)
		}
	}

	confirmed := true
	if req.Confirmed != nil {
		confirmed = *req.Confirmed
	}
	date := req.Date
	if date.IsZero() {
		date = s.today()
	}
	date = model.DateOnly(date)

	release, err := s.lockAccounts(ctx, []int64{req.SourceAccountID, req.DestAccountID})
	if err != nil {
		return nil, err
	}
	defer release()

	var transfer *model.Transfer
	err = s.db.Transaction(func(tx *gorm.DB) error {
		accounts, err := s.accountRepo.LockForUpdate(ctx, tx, req.SourceAccountID, req.DestAccountID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return fmt.Errorf("%w: %w", ErrInvalidTransfer, err)
			}
			return err
		}
		source := accounts[req.SourceAccountID]
		dest := accounts[req.DestAccountID]

		credit, rate, err := s.destinationCredit(ctx, tx, source, dest, req)
		if err != nil {
			return err
		}

		sourceLeg := &model.Transaction{
			TransactionNo:     idgen.GenerateTransactionNo(),
			AccountID:         source.ID,
			Date:              date,
			Amount:            SignedAmount(model.CategoryTransfer, req.Amount),
			Currency:          source.Currency,
			TypeID:            req.TypeID,
			Description:       req.Description,
			Confirmed:         confirmed,
			TransferAccountID: &dest.ID,
			TransferAmount:    decimal.NewNullDecimal(credit),
			Source:            model.TransactionSourceTransfer,
		}
		destLeg := &model.Transaction{
			TransactionNo:     idgen.GenerateTransactionNo(),
			AccountID:         dest.ID,
			Date:              date,
			Amount:            credit,
			Currency:          dest.Currency,
			Description:       req.Description,
			Confirmed:         confirmed,
			TransferAccountID: &source.ID,
			Source:            model.TransactionSourceTransfer,
		}
		for _, leg := range []*model.Transaction{sourceLeg, destLeg} {
			if err := s.transactionRepo.Create(ctx, tx, leg); err != nil {
				return fmt.Errorf("create transfer leg: %w", err)
			}
		}

		transfer = &model.Transfer{
			TransferNo:          idgen.GenerateTransferNo(),
			SourceAccountID:     source.ID,
			DestAccountID:       dest.ID,
			Amount:              req.Amount.Abs(),
			TransferAmount:      credit,
			Rate:                rate,
			Date:                date,
			Confirmed:           confirmed,
			Description:         req.Description,
			SourceTransactionID: sourceLeg.ID,
			DestTransactionID:   destLeg.ID,
		}
		if err := s.transferRepo.Create(ctx, tx, transfer); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}
		if err := s.transactionRepo.SetTransferID(ctx, tx, []int64{sourceLeg.ID, destLeg.ID}, transfer.ID); err != nil {
			return fmt.Errorf("link transfer legs: %w", err)
		}

		if err := s.applyEffect(ctx, tx, source, sourceLeg, 1); err != nil {
			return err
		}
		if err := s.applyEffect(ctx, tx, dest, destLeg, 1); err != nil {
			return err
		}

		return s.emit(ctx, tx, model.EventTransferPosted, transfer.TransferNo, map[string]interface{}{
			"transfer_id":     transfer.ID,
			"source_account":  source.ID,
			"dest_account":    dest.ID,
			"amount":          transfer.Amount,
			"transfer_amount": transfer.TransferAmount,
			"rate":            transfer.Rate,
			"confirmed":       confirmed,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("transfer_id", transfer.ID).
		Int64("source_account", transfer.SourceAccountID).
		Int64("dest_account", transfer.DestAccountID).
		Str("amount", transfer.Amount.String()).
		Str("transfer_amount", transfer.TransferAmount.String()).
		Msg("transfer posted")
	return transfer, nil
}

// destinationCredit decides what arrives on dest and the rate snapshot that
// produced it.
func (s *TransferService) destinationCredit(ctx context.Context, tx *gorm.DB, source, dest *model.Account, req *PostTransferRequest) (decimal.Decimal, decimal.Decimal, error) {
	amount := req.Amount.Abs()

	if model.NormalizeCurrency(source.Currency) == model.NormalizeCurrency(dest.Currency) {
		if req.TransferAmount != nil && !req.TransferAmount.Equal(amount) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: same-currency transfer amounts differ (%s vs %s)",
				ErrInvalidTransfer, amount, req.TransferAmount)
		}
		return amount, decimal.NewFromInt(1), nil
	}

	if req.TransferAmount != nil {
		credit := *req.TransferAmount
		return credit, credit.DivRound(amount, rateScale), nil
	}

	rates, err := s.currencyRepo.RateTable(ctx, tx)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("load rates: %w", err)
	}
	converted, err := ConvertCurrency(amount, source.Currency, dest.Currency, rates)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	credit := RoundMoney(converted)
	if !credit.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: converted amount rounds to zero", ErrInvalidTransfer)
	}
	return credit, converted.DivRound(amount, rateScale), nil
}

// DeleteTransfer removes the transfer with both legs.
func (s *TransferService) DeleteTransfer(ctx context.Context, id int64) error {
	return s.removeTransfer(ctx, id)
}

func (s *TransferService) GetTransfer(ctx context.Context, id int64) (*model.Transfer, error) {
	return s.transferRepo.GetByID(ctx, nil, id)
}
