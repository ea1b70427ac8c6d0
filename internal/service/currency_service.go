package service

import (
	"context"
	"errors"
	"fmt"

	"finledger/internal/model"
	"finledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CurrencyService maintains the current-rate table.
type CurrencyService struct {
	currencyRepo *repository.CurrencyRepository
}

func NewCurrencyService(db *gorm.DB) *CurrencyService {
	return &CurrencyService{currencyRepo: repository.NewCurrencyRepository(db)}
}

type UpsertCurrencyRequest struct {
	Code              string          `json:"code" binding:"required"`
	Name              string          `json:"name"`
	Symbol            string          `json:"symbol"`
	ExchangeRateToEUR decimal.Decimal `json:"exchange_rate_to_eur"`
}

// UpsertCurrency creates or updates a currency. EUR is the pivot and is
// always stored with rate 1.
func (s *CurrencyService) UpsertCurrency(ctx context.Context, req *UpsertCurrencyRequest) (*model.Currency, error) {
	code := model.NormalizeCurrency(req.Code)
	if len(code) < 3 {
		return nil, fmt.Errorf("%w: currency code %q", ErrInvalidRequest, req.Code)
	}

	rate := req.ExchangeRateToEUR
	if code == model.PivotCurrency {
		rate = decimal.NewFromInt(1)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: rate for %s must be positive", ErrInvalidAmount, code)
	}

	currency := &model.Currency{
		Code:              code,
		Name:              req.Name,
		Symbol:            req.Symbol,
		ExchangeRateToEUR: rate,
	}
	if err := s.currencyRepo.Upsert(ctx, nil, currency); err != nil {
		return nil, fmt.Errorf("save currency: %w", err)
	}
	return currency, nil
}

func (s *CurrencyService) GetCurrency(ctx context.Context, code string) (*model.Currency, error) {
	currency, err := s.currencyRepo.Get(ctx, nil, code)
	if err != nil {
		if errors.Is(err, repository.ErrCurrencyNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
		}
		return nil, err
	}
	return currency, nil
}

func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]*model.Currency, error) {
	return s.currencyRepo.List(ctx, nil)
}

func (s *CurrencyService) RateTable(ctx context.Context) (model.RateTable, error) {
	return s.currencyRepo.RateTable(ctx, nil)
}

// Convert converts with the stored rates.
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rates, err := s.RateTable(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load rates: %w", err)
	}
	return ConvertCurrency(amount, from, to, rates)
}
