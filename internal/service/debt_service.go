package service

import (
	"context"
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

type DebtService struct {
	*core
}

func NewDebtService(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *DebtService {
	return &DebtService{core: newCore(db, locker, cfg, log.With().Str("component", "debt").Logger())}
}

type CreateDebtRequest struct {
	Creditor        string           `json:"creditor" binding:"required"`
	Principal       decimal.Decimal  `json:"principal"`
	CurrentBalance  *decimal.Decimal `json:"current_balance"`
	InterestRate    decimal.Decimal  `json:"interest_rate"`
	InterestType    string           `json:"interest_type"`
	MonthlyPayment  decimal.Decimal  `json:"monthly_payment"`
	LinkedAccountID *int64           `json:"linked_account_id"`
	Currency        string           `json:"currency"`
}

// CreateDebt registers a debt. The balance starts at the principal unless
// an explicit current balance is given.
func (s *DebtService) CreateDebt(ctx context.Context, req *CreateDebtRequest) (*model.Debt, error) {
	if !req.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", ErrInvalidAmount)
	}
	if req.InterestRate.IsNegative() || req.MonthlyPayment.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate and monthly payment must not be negative", ErrInvalidAmount)
	}
	interestType := req.InterestType
	if interestType == "" {
		interestType = model.InterestTypeSimple
	}
	if interestType != model.InterestTypeSimple && interestType != model.InterestTypeCompound {
		return nil, fmt.Errorf("%w: unknown interest type %q", ErrInvalidRequest, req.InterestType)
	}

	balance := req.Principal
	if req.CurrentBalance != nil {
		if req.CurrentBalance.IsNegative() {
			return nil, fmt.Errorf("%w: current balance must not be negative", ErrInvalidAmount)
		}
		balance = *req.CurrentBalance
	}

	currency := model.NormalizeCurrency(req.Currency)
	if req.LinkedAccountID != nil {
		account, err := s.accountRepo.GetByID(ctx, nil, *req.LinkedAccountID)
		if err != nil {
			return nil, err
		}
		if currency == "" {
			currency = model.NormalizeCurrency(account.Currency)
		}
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required without a linked account", ErrInvalidRequest)
	}

	debt := &model.Debt{
		Creditor:        req.Creditor,
		Principal:       req.Principal,
		CurrentBalance:  balance,
		InterestRate:    req.InterestRate,
		InterestType:    interestType,
		MonthlyPayment:  req.MonthlyPayment,
		LinkedAccountID: req.LinkedAccountID,
		Currency:        currency,
		Active:          true,
	}
	if err := s.debtRepo.Create(ctx, nil, debt); err != nil {
		return nil, fmt.Errorf("create debt: %w", err)
	}

	s.log.Info().Int64("debt_id", debt.ID).Str("creditor", debt.Creditor).Msg("debt created")
	return debt, nil
}

type DebtPaymentRequest struct {
	DebtID      int64           `json:"debt_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	PaymentType string          `json:"payment_type"`
}

// PaymentSplit is how a payment divides between interest and the balance.
type PaymentSplit struct {
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Extra     decimal.Decimal
}

// SplitPayment computes the split of amount against debt. A monthly
// payment pays the period's interest first (rounded to cents and never more
// than the payment) and the rest is principal; an extra payment is all
// principal. Anything that would push the balance below zero is
// ErrOverpayment.
func SplitPayment(debt *model.Debt, amount decimal.Decimal, paymentType string) (PaymentSplit, error) {
	var split PaymentSplit
	switch paymentType {
	case model.PaymentTypeMonthly:
		interest := RoundMoney(debt.CurrentBalance.Mul(PeriodicRate(debt.InterestRate, debt.InterestType)))
		if interest.GreaterThan(amount) {
			interest = amount
		}
		split.Interest = interest
		split.Principal = amount.Sub(interest)
	case model.PaymentTypeExtra:
		split.Extra = amount
	default:
		return split, fmt.Errorf("%w: unknown payment type %q", ErrInvalidRequest, paymentType)
	}

	if split.Principal.Add(split.Extra).GreaterThan(debt.CurrentBalance) {
		return split, fmt.Errorf("%w: reduces balance by %s, only %s left",
			ErrOverpayment, split.Principal.Add(split.Extra), debt.CurrentBalance)
	}
	return split, nil
}

// PostPayment records a debt payment, lowers the debt balance by its
// principal and posts the matching outflow on the linked account, all in
// one database transaction.
func (s *DebtService) PostPayment(ctx context.Context, req *DebtPaymentRequest) (*model.DebtPayment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment must be positive", ErrInvalidAmount)
	}
	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = model.PaymentTypeMonthly
	}

	debt, err := s.debtRepo.GetByID(ctx, nil, req.DebtID)
	if err != nil {
		return nil, err
	}
	if !debt.Active {
		return nil, ErrDebtInactive
	}
	if debt.LinkedAccountID == nil {
		return nil, ErrNoLinkedAccount
	}
	accountID := *debt.LinkedAccountID

	date := req.Date
	if date.IsZero() {
		date = s.today()
	}
	date = model.DateOnly(date)

	release, err := s.lockAccounts(ctx, []int64{accountID}, lock.DebtKey(debt.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	var payment *model.DebtPayment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		debt, err := s.debtRepo.GetByIDForUpdate(ctx, tx, req.DebtID)
		if err != nil {
			return err
		}
		if !debt.Active {
			return ErrDebtInactive
		}
		account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}

		split, err := SplitPayment(debt, req.Amount, paymentType)
		if err != nil {
			return err
		}

		trans := &model.Transaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			AccountID:     account.ID,
			Date:          date,
			Amount:        SignedAmount(model.CategoryExpense, req.Amount),
			Currency:      account.Currency,
			Description:   fmt.Sprintf("Debt payment: %s", debt.Creditor),
			Confirmed:     true,
			Source:        model.TransactionSourceDebtPayment,
		}
		if model.NormalizeCurrency(debt.Currency) != model.NormalizeCurrency(account.Currency) {
			rates, err := s.currencyRepo.RateTable(ctx, tx)
			if err != nil {
				return fmt.Errorf("load rates: %w", err)
			}
			converted, err := ConvertCurrency(trans.Amount, debt.Currency, account.Currency, rates)
			if err != nil {
				return err
			}
			trans.OriginalAmount = decimal.NewNullDecimal(trans.Amount)
			trans.OriginalCurrency = model.NormalizeCurrency(debt.Currency)
			trans.Amount = RoundMoney(converted)
			if trans.Amount.IsZero() {
				return fmt.Errorf("%w: payment of %s %s rounds to zero in %s",
					ErrInvalidAmount, req.Amount, debt.Currency, account.Currency)
			}
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("create payment transaction: %w", err)
		}

		payment = &model.DebtPayment{
			PaymentNo:     idgen.GeneratePaymentNo(),
			DebtID:        debt.ID,
			Amount:        req.Amount,
			PaymentDate:   date,
			PaymentType:   paymentType,
			TransactionID: trans.ID,
			PrincipalPaid: split.Principal,
			InterestPaid:  split.Interest,
			ExtraPayment:  split.Extra,
		}
		if err := s.debtRepo.CreatePayment(ctx, tx, payment); err != nil {
			return fmt.Errorf("create debt payment: %w", err)
		}

		remaining := debt.CurrentBalance.Sub(payment.BalanceReduction())
		if err := s.debtRepo.SetCurrentBalance(ctx, tx, debt, remaining); err != nil {
			return fmt.Errorf("update debt balance: %w", err)
		}
		if err := s.applyEffect(ctx, tx, account, trans, 1); err != nil {
			return err
		}

		return s.emit(ctx, tx, model.EventDebtPaymentPosted, payment.PaymentNo, map[string]interface{}{
			"payment_id":      payment.ID,
			"debt_id":         debt.ID,
			"transaction_id":  trans.ID,
			"amount":          payment.Amount,
			"interest_paid":   payment.InterestPaid,
			"principal_paid":  payment.PrincipalPaid,
			"extra_payment":   payment.ExtraPayment,
			"current_balance": remaining,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("payment_id", payment.ID).
		Int64("debt_id", payment.DebtID).
		Int64("transaction_id", payment.TransactionID).
		Str("interest", payment.InterestPaid.String()).
		Str("principal", payment.BalanceReduction().String()).
		Msg("debt payment posted")
	return payment, nil
}

// DeletePayment removes a payment, restores the debt balance and deletes
// the linked transaction with its balance effect.
func (s *DebtService) DeletePayment(ctx context.Context, paymentID int64) error {
	payment, err := s.debtRepo.GetPayment(ctx, nil, paymentID)
	if err != nil {
		return err
	}
	trans, err := s.transactionRepo.GetByID(ctx, nil, payment.TransactionID)
	if err != nil {
		return fmt.Errorf("load payment transaction: %w", err)
	}
	return s.removePayment(ctx, payment, trans.AccountID)
}

// DeleteDebt hard-deletes a debt without payments and deactivates one
// that has them. It reports whether the debt was only deactivated. The
// debt lock and row lock keep a concurrent payment out between the count
// and the delete.
func (s *DebtService) DeleteDebt(ctx context.Context, id int64) (bool, error) {
	release, err := s.locker.Acquire(ctx, lock.DebtKey(id))
	if err != nil {
		return false, fmt.Errorf("acquire debt lock: %w", err)
	}
	defer release()

	var count int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.debtRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}

		n, err := s.debtRepo.CountPayments(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count debt payments: %w", err)
		}
		count = n
		if count > 0 {
			if err := s.debtRepo.Deactivate(ctx, tx, id); err != nil {
				return fmt.Errorf("deactivate debt: %w", err)
			}
			return nil
		}
		if err := s.debtRepo.Delete(ctx, tx, id); err != nil {
			return fmt.Errorf("delete debt: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if count > 0 {
		s.log.Info().Int64("debt_id", id).Int64("payments", count).Msg("debt deactivated")
		return true, nil
	}
	s.log.Info().Int64("debt_id", id).Msg("debt deleted")
	return false, nil
}

func (s *DebtService) GetDebt(ctx context.Context, id int64) (*model.Debt, error) {
	return s.debtRepo.GetByID(ctx, nil, id)
}

func (s *DebtService) ListDebts(ctx context.Context) ([]*model.Debt, error) {
	return s.debtRepo.ListActive(ctx)
}

func (s *DebtService) ListPayments(ctx context.Context, debtID int64) ([]*model.DebtPayment, error) {
	if _, err := s.debtRepo.GetByID(ctx, nil, debtID); err != nil {
		return nil, err
	}
	return s.debtRepo.ListPayments(ctx, debtID)
}
