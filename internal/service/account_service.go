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

type AccountService struct {
	*core
}

func NewAccountService(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *AccountService {
	return &AccountService{core: newCore(db, locker, cfg, log.With().Str("component", "account").Logger())}
}

type CreateAccountRequest struct {
	Name           string          `json:"name" binding:"required"`
	Currency       string          `json:"currency" binding:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningDate    *time.Time      `json:"opening_date"`
}

// CreateAccount opens an account whose balance starts at the opening
// balance.
func (s *AccountService) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*model.Account, error) {
	currency := model.NormalizeCurrency(req.Currency)
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidRequest)
	}

	account := &model.Account{
		Name:           req.Name,
		Currency:       currency,
		Balance:        req.OpeningBalance,
		OpeningBalance: req.OpeningBalance,
		OpeningDate:    dateOnlyPtr(req.OpeningDate),
	}
	if err := s.accountRepo.Create(ctx, nil, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info().Int64("account_id", account.ID).Str("currency", currency).Msg("account created")
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return s.accountRepo.GetByID(ctx, nil, id)
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.accountRepo.List(ctx)
}

type AccountValue struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Converted decimal.Decimal `json:"converted"`
}

type NetWorth struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Accounts []AccountValue  `json:"accounts"`
}

// NetWorth totals every cached balance in display currency. Conversion
// always uses today's rate table, whatever the transaction dates.
func (s *AccountService) NetWorth(ctx context.Context, display string) (*NetWorth, error) {
	display = model.NormalizeCurrency(display)
	if display == "" {
		display = model.PivotCurrency
	}

	rates, err := s.currencyRepo.RateTable(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	result := &NetWorth{Currency: display, Total: decimal.Zero}
	for _, a := range accounts {
		converted, err := ConvertCurrency(a.Balance, a.Currency, display, rates)
		if err != nil {
			return nil, err
		}
		converted = RoundMoney(converted)
		result.Total = result.Total.Add(converted)
		result.Accounts = append(result.Accounts, AccountValue{
			AccountID: a.ID,
			Name:      a.Name,
			Currency:  a.Currency,
			Balance:   a.Balance,
			Converted: converted,
		})
	}
	return result, nil
}
