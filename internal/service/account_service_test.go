package service

import (
	"errors"
	"testing"
)

func TestNetWorthUsesCurrentRates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account("Euro", "EUR", "100")
	f.account("Dollar", "usd", "110")

	worth, err := f.accounts.NetWorth(f.ctx, "EUR")
	if err != nil {
		t.Fatalf("net worth: %v", err)
	}
	if !worth.Total.Equal(dec("200")) || len(worth.Accounts) != 2 {
		t.Fatalf("net worth = %+v", worth)
	}

	f.currency("USD", dec("0.5"))
	worth, err = f.accounts.NetWorth(f.ctx, "USD")
	if err != nil {
		t.Fatalf("net worth: %v", err)
	}
	if !worth.Total.Equal(dec("310")) {
		t.Fatalf("net worth in USD = %s, want 310", worth.Total)
	}
}

func TestNetWorthUnknownCurrency(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.account("Yen", "JPY", "1000")

	if _, err := f.accounts.NetWorth(f.ctx, "EUR"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("error = %v, want ErrUnknownCurrency", err)
	}
}

func TestCreateAccountRequiresCurrency(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	if _, err := f.accounts.CreateAccount(f.ctx, &CreateAccountRequest{Name: "x"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
	if _, err := f.accounts.GetAccount(f.ctx, 12345); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestUpsertCurrencyPinsEUR(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	eur, err := f.currencies.UpsertCurrency(f.ctx, &UpsertCurrencyRequest{Code: "eur", ExchangeRateToEUR: dec("3")})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if eur.Code != "EUR" || !eur.ExchangeRateToEUR.Equal(dec("1")) {
		t.Fatalf("EUR = %+v", eur)
	}
	if _, err := f.currencies.UpsertCurrency(f.ctx, &UpsertCurrencyRequest{Code: "GBP", ExchangeRateToEUR: dec("0")}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero rate error = %v", err)
	}

	got, err := f.currencies.Convert(f.ctx, dec("10"), "EUR", "USD")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !RoundMoney(got).Equal(dec("11")) {
		t.Fatalf("10 EUR = %s USD", got)
	}
	if _, err := f.currencies.GetCurrency(f.ctx, "XYZ"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("missing currency error = %v", err)
	}
}

func TestCategoryTypes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if _, err := f.categories.CreateType(f.ctx, "Gifts", "donation"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("bad category error = %v", err)
	}
	again, err := f.categories.EnsureType(f.ctx, "Groceries", "expense")
	if err != nil || again.ID != f.expense.ID {
		t.Fatalf("EnsureType existing = %+v, %v", again, err)
	}
	sub, err := f.categories.CreateSubtype(f.ctx, f.expense.ID, "Bakery")
	if err != nil {
		t.Fatalf("create subtype: %v", err)
	}

	acct := f.account("Checking", "EUR", "10")
	_, err = f.ledger.PostTransaction(f.ctx, &PostTransactionRequest{
		AccountID: acct.ID, Amount: dec("5"), TypeID: &f.income.ID, SubtypeID: &sub.ID, Confirmed: true,
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("mismatched subtype error = %v", err)
	}

	types, err := f.categories.ListTypes(f.ctx)
	if err != nil || len(types) != 3 {
		t.Fatalf("types = %d, %v", len(types), err)
	}
}
