package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCountsToward(t *testing.T) {
	opening := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	withDate := &Account{OpeningDate: &opening}
	noDate := &Account{}

	tests := []struct {
		name      string
		account   *Account
		date      time.Time
		confirmed bool
		want      bool
	}{
		{"pending never counts", noDate, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false, false},
		{"no opening date", noDate, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), true, true},
		{"before opening", withDate, time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), true, false},
		{"opening day, earlier hour", withDate, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), true, true},
		{"after opening", withDate, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.CountsToward(tt.date, tt.confirmed); got != tt.want {
				t.Errorf("CountsToward() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	in := time.Date(2024, 3, 1, 0, 30, 0, 0, cet)

	got := DateOnly(in)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("DateOnly(%v) = %v, want %v", in, got, want)
	}
}

func TestRateTable(t *testing.T) {
	table := NewRateTable([]*Currency{
		{Code: "eur", ExchangeRateToEUR: decimal.NewFromInt(1)},
		{Code: " usd ", ExchangeRateToEUR: decimal.RequireFromString("0.9")},
	})

	rate, ok := table.Rate("USD")
	if !ok || !rate.Equal(decimal.RequireFromString("0.9")) {
		t.Fatalf("USD rate = %s, %v", rate, ok)
	}
	if _, ok := table.Rate("Eur"); !ok {
		t.Fatal("lookup should ignore case")
	}
	if _, ok := table.Rate("GBP"); ok {
		t.Fatal("GBP should be missing")
	}
}

func TestBalanceReduction(t *testing.T) {
	p := &DebtPayment{
		Amount:        decimal.NewFromInt(300),
		InterestPaid:  decimal.RequireFromString("41.67"),
		PrincipalPaid: decimal.RequireFromString("258.33"),
		ExtraPayment:  decimal.NewFromInt(50),
	}
	if got := p.BalanceReduction(); !got.Equal(decimal.RequireFromString("308.33")) {
		t.Fatalf("BalanceReduction() = %s", got)
	}
}

func TestIsTransferLeg(t *testing.T) {
	id := int64(7)
	if (&Transaction{}).IsTransferLeg() {
		t.Fatal("plain transaction reported as transfer leg")
	}
	if !(&Transaction{TransferID: &id}).IsTransferLeg() {
		t.Fatal("leg not detected")
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range []string{CategoryExpense, CategoryIncome, CategoryTransfer} {
		if !ValidCategory(c) {
			t.Errorf("%q should be valid", c)
		}
	}
	if ValidCategory("savings") {
		t.Error("unknown category accepted")
	}
}
