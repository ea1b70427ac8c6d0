package service

import (
	"errors"
	"testing"
	"time"

	"finledger/internal/model"
)

func newRent(t *testing.T, f *fixture, accountID int64, amount string) *model.RecurringTemplate {
	t.Helper()
	template, err := f.recurring.CreateTemplate(f.ctx, &CreateTemplateRequest{
		Name:      "Rent",
		AccountID: accountID,
		TypeID:    f.expense.ID,
		Amount:    dec(amount),
		Pattern:   model.PatternMonthly,
		Interval:  1,
		StartDate: day(2024, time.January, 31),
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return template
}

func TestCreateTemplateFixesSign(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "0")

	template := newRent(t, f, acct.ID, "75")
	if !template.Amount.Equal(dec("-75")) {
		t.Fatalf("template amount = %s, want -75", template.Amount)
	}

	income := f.income.ID
	updated, err := f.recurring.UpdateTemplate(f.ctx, template.ID, &UpdateTemplateRequest{TypeID: &income})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Amount.Equal(dec("75")) {
		t.Fatalf("amount after switching to income = %s, want 75", updated.Amount)
	}
}

func TestMaterializeDerivesSignFromCategory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "100")
	template := newRent(t, f, acct.ID, "75")

	// Simulate a row written with the wrong sign.
	err := f.db.Model(&model.RecurringTemplate{}).Where("id = ?", template.ID).Update("amount", dec("75")).Error
	if err != nil {
		t.Fatalf("corrupt template: %v", err)
	}

	trans, err := f.recurring.Materialize(f.ctx, template.ID, day(2024, time.March, 31))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if trans == nil {
		t.Fatal("expected a transaction on a due date")
	}
	if !trans.Amount.Equal(dec("-75")) {
		t.Fatalf("materialized amount = %s, want -75", trans.Amount)
	}
	if trans.Confirmed || trans.Source != model.TransactionSourceRecurring {
		t.Fatalf("materialized transaction = %+v", trans)
	}
	f.wantBalance(acct.ID, "100")

	if _, err := f.ledger.ConfirmTransaction(f.ctx, trans.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	f.wantBalance(acct.ID, "25")
}

func TestMaterializeIsIdempotentAndDateExact(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "0")
	template := newRent(t, f, acct.ID, "75")

	// February clamps the 31st to the 29th in a leap year.
	first, err := f.recurring.Materialize(f.ctx, template.ID, day(2024, time.February, 29))
	if err != nil || first == nil {
		t.Fatalf("first materialize = %v, %v", first, err)
	}
	again, err := f.recurring.Materialize(f.ctx, template.ID, day(2024, time.February, 29))
	if err != nil || again != nil {
		t.Fatalf("second materialize = %v, %v, want nil", again, err)
	}
	notDue, err := f.recurring.Materialize(f.ctx, template.ID, day(2024, time.February, 28))
	if err != nil || notDue != nil {
		t.Fatalf("materialize on non-due date = %v, %v", notDue, err)
	}
	if n := f.countRows(&model.Transaction{}); n != 1 {
		t.Fatalf("%d transactions, want 1", n)
	}

	// Only a sweep moves the watermark.
	got, _ := f.recurring.GetTemplate(f.ctx, template.ID)
	if got.LastGeneratedDate != nil {
		t.Fatalf("last generated = %v, want unset after manual materialize", got.LastGeneratedDate)
	}

	if _, err := f.recurring.Materialize(f.ctx, 404, day(2024, time.February, 29)); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("missing template error = %v", err)
	}
}

func TestInactiveTemplateDoesNotMaterialize(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "0")
	template := newRent(t, f, acct.ID, "75")

	if err := f.recurring.DeactivateTemplate(f.ctx, template.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	trans, err := f.recurring.Materialize(f.ctx, template.ID, day(2024, time.March, 31))
	if err != nil || trans != nil {
		t.Fatalf("materialize inactive = %v, %v", trans, err)
	}
}

func TestSweepCatchesUpMissedOccurrences(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "0")
	newRent(t, f, acct.ID, "75")

	_, err := f.recurring.CreateTemplate(f.ctx, &CreateTemplateRequest{
		Name:      "Pocket money",
		AccountID: acct.ID,
		TypeID:    f.income.ID,
		Amount:    dec("-10"),
		Pattern:   model.PatternWeekly,
		StartDate: day(2024, time.March, 4),
	})
	if err != nil {
		t.Fatalf("create weekly: %v", err)
	}

	created, err := f.recurring.Sweep(f.ctx, day(2024, time.March, 31))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	// Rent: Jan 31, Feb 29, Mar 31. Weekly: Mar 4, 11, 18, 25.
	if len(created) != 7 {
		t.Fatalf("sweep created %d transactions, want 7", len(created))
	}
	var rent, pocket int
	for _, trans := range created {
		if trans.Confirmed {
			t.Fatalf("swept transaction %d is confirmed", trans.ID)
		}
		switch {
		case trans.Amount.Equal(dec("-75")):
			rent++
		case trans.Amount.Equal(dec("10")):
			pocket++
		default:
			t.Fatalf("unexpected amount %s", trans.Amount)
		}
	}
	if rent != 3 || pocket != 4 {
		t.Fatalf("rent = %d, pocket money = %d", rent, pocket)
	}

	again, err := f.recurring.Sweep(f.ctx, day(2024, time.March, 31))
	if err != nil || len(again) != 0 {
		t.Fatalf("second sweep = %d, %v", len(again), err)
	}
}

func TestSweepCoversDatesBeforeManualMaterialize(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "0")
	template, err := f.recurring.CreateTemplate(f.ctx, &CreateTemplateRequest{
		Name:      "Coffee",
		AccountID: acct.ID,
		TypeID:    f.expense.ID,
		Amount:    dec("3"),
		Pattern:   model.PatternDaily,
		StartDate: day(2024, time.March, 1),
	})
	if err != nil {
		t.Fatalf("create daily: %v", err)
	}

	ahead, err := f.recurring.Materialize(f.ctx, template.ID, day(2024, time.March, 20))
	if err != nil || ahead == nil {
		t.Fatalf("materialize ahead = %v, %v", ahead, err)
	}

	created, err := f.recurring.Sweep(f.ctx, day(2024, time.March, 10))
	if err != nil {
		t.Fatalf("sweep to Mar 10: %v", err)
	}
	if len(created) != 10 {
		t.Fatalf("sweep to Mar 10 created %d, want 10 (Mar 1..10)", len(created))
	}

	// Mar 11..19 are new; Mar 20 already exists.
	created, err = f.recurring.Sweep(f.ctx, day(2024, time.March, 20))
	if err != nil {
		t.Fatalf("sweep to Mar 20: %v", err)
	}
	if len(created) != 9 {
		t.Fatalf("sweep to Mar 20 created %d, want 9", len(created))
	}
	if n := f.countRows(&model.Transaction{}); n != 20 {
		t.Fatalf("%d transactions, want 20", n)
	}

	got, _ := f.recurring.GetTemplate(f.ctx, template.ID)
	if got.LastGeneratedDate == nil || !model.DateOnly(*got.LastGeneratedDate).Equal(day(2024, time.March, 20)) {
		t.Fatalf("last generated = %v, want Mar 20", got.LastGeneratedDate)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "0")
	end := day(2023, time.January, 1)
	bonus, err := f.categories.CreateSubtype(f.ctx, f.income.ID, "Bonus")
	if err != nil {
		t.Fatalf("create subtype: %v", err)
	}
	missing := int64(555)

	tests := []struct {
		name string
		req  CreateTemplateRequest
		want error
	}{
		{"bad pattern", CreateTemplateRequest{Name: "x", AccountID: acct.ID, TypeID: f.expense.ID, Amount: dec("1"), Pattern: "hourly", StartDate: day(2024, 1, 1)}, ErrInvalidRequest},
		{"end before start", CreateTemplateRequest{Name: "x", AccountID: acct.ID, TypeID: f.expense.ID, Amount: dec("1"), Pattern: model.PatternDaily, StartDate: day(2024, 1, 1), EndDate: &end}, ErrInvalidRequest},
		{"zero amount", CreateTemplateRequest{Name: "x", AccountID: acct.ID, TypeID: f.expense.ID, Amount: dec("0"), Pattern: model.PatternDaily, StartDate: day(2024, 1, 1)}, ErrInvalidAmount},
		{"missing account", CreateTemplateRequest{Name: "x", AccountID: 555, TypeID: f.expense.ID, Amount: dec("1"), Pattern: model.PatternDaily, StartDate: day(2024, 1, 1)}, ErrAccountNotFound},
		{"missing type", CreateTemplateRequest{Name: "x", AccountID: acct.ID, TypeID: 555, Amount: dec("1"), Pattern: model.PatternDaily, StartDate: day(2024, 1, 1)}, ErrTypeNotFound},
		{"subtype of another type", CreateTemplateRequest{Name: "x", AccountID: acct.ID, TypeID: f.expense.ID, SubtypeID: &bonus.ID, Amount: dec("1"), Pattern: model.PatternDaily, StartDate: day(2024, 1, 1)}, ErrInvalidRequest},
		{"missing subtype", CreateTemplateRequest{Name: "x", AccountID: acct.ID, TypeID: f.expense.ID, SubtypeID: &missing, Amount: dec("1"), Pattern: model.PatternDaily, StartDate: day(2024, 1, 1)}, ErrSubtypeNotFound},
	}
	for _, tt := range tests {
		req := tt.req
		if _, err := f.recurring.CreateTemplate(f.ctx, &req); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}
