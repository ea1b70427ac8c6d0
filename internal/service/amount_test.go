package service

import (
	"testing"

	"finledger/internal/model"
)

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		category  string
		magnitude string
		want      string
	}{
		{model.CategoryExpense, "50", "-50"},
		{model.CategoryExpense, "-50", "-50"},
		{model.CategoryTransfer, "200", "-200"},
		{model.CategoryIncome, "1200.50", "1200.50"},
		{model.CategoryIncome, "-1200.50", "1200.50"},
	}

	for _, tt := range tests {
		got := SignedAmount(tt.category, dec(tt.magnitude))
		if !got.Equal(dec(tt.want)) {
			t.Errorf("SignedAmount(%s, %s) = %s, want %s", tt.category, tt.magnitude, got, tt.want)
		}
	}
}

func TestPeriodicRate(t *testing.T) {
	simple := PeriodicRate(dec("6"), model.InterestTypeSimple)
	if !simple.Equal(dec("0.005")) {
		t.Fatalf("simple periodic rate = %s, want 0.005", simple)
	}

	compound := PeriodicRate(dec("12"), model.InterestTypeCompound)
	// (1.12)^(1/12) - 1
	if got := compound.Round(6); !got.Equal(dec("0.009489")) {
		t.Fatalf("compound periodic rate = %s, want ~0.009489", compound)
	}

	if !PeriodicRate(dec("0"), model.InterestTypeCompound).IsZero() {
		t.Fatal("zero rate should give zero periodic rate")
	}
}

func TestRoundMoney(t *testing.T) {
	tests := map[string]string{
		"219.999999": "220",
		"0.005":      "0.01",
		"-0.005":     "-0.01",
		"12.344":     "12.34",
	}
	for in, want := range tests {
		if got := RoundMoney(dec(in)); !got.Equal(dec(want)) {
			t.Errorf("RoundMoney(%s) = %s, want %s", in, got, want)
		}
	}
}
