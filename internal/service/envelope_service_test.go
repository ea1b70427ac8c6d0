package service

import (
	"errors"
	"testing"
)

func TestEnvelopeAllocationsTrackSum(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "100")
	trans := f.post(acct.ID, "-40", f.expense, true)

	env, err := f.envelopes.CreateEnvelope(f.ctx, &CreateEnvelopeRequest{Name: "Holiday", TargetAmount: dec("1000")})
	if err != nil {
		t.Fatalf("create envelope: %v", err)
	}

	if _, err := f.envelopes.Allocate(f.ctx, &AllocateRequest{EnvelopeID: env.ID, Amount: dec("150")}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	withdrawal, err := f.envelopes.Allocate(f.ctx, &AllocateRequest{EnvelopeID: env.ID, Amount: dec("-40"), TransactionID: &trans.ID})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	got, err := f.envelopes.GetEnvelope(f.ctx, env.ID)
	if err != nil {
		t.Fatalf("get envelope: %v", err)
	}
	if !got.CurrentAmount.Equal(dec("110")) {
		t.Fatalf("current amount = %s, want 110", got.CurrentAmount)
	}
	// Envelopes are virtual: the account balance is untouched.
	f.wantBalance(acct.ID, "60")

	if err := f.envelopes.DeleteEnvelopeTransaction(f.ctx, withdrawal.ID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	got, _ = f.envelopes.GetEnvelope(f.ctx, env.ID)
	if !got.CurrentAmount.Equal(dec("150")) {
		t.Fatalf("current amount after delete = %s, want 150", got.CurrentAmount)
	}
}

func TestEnvelopeLinkIsInformational(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	acct := f.account("Checking", "EUR", "100")
	trans := f.post(acct.ID, "-25", f.expense, true)

	env, _ := f.envelopes.CreateEnvelope(f.ctx, &CreateEnvelopeRequest{Name: "Food"})
	entry, err := f.envelopes.Allocate(f.ctx, &AllocateRequest{EnvelopeID: env.ID, Amount: dec("-25"), TransactionID: &trans.ID})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if err := f.ledger.DeleteTransaction(f.ctx, trans.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}

	entries, err := f.envelopes.ListEntries(f.ctx, env.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID || entries[0].TransactionID != nil {
		t.Fatalf("entry should survive unlinked: %+v", entries)
	}
	got, _ := f.envelopes.GetEnvelope(f.ctx, env.ID)
	if !got.CurrentAmount.Equal(dec("-25")) {
		t.Fatalf("current amount = %s, want -25", got.CurrentAmount)
	}
}

func TestAllocateValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	env, _ := f.envelopes.CreateEnvelope(f.ctx, &CreateEnvelopeRequest{Name: "Misc"})
	missing := int64(31337)

	if _, err := f.envelopes.Allocate(f.ctx, &AllocateRequest{EnvelopeID: env.ID, Amount: dec("0")}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero allocation error = %v", err)
	}
	if _, err := f.envelopes.Allocate(f.ctx, &AllocateRequest{EnvelopeID: 999, Amount: dec("5")}); !errors.Is(err, ErrEnvelopeNotFound) {
		t.Fatalf("missing envelope error = %v", err)
	}
	if _, err := f.envelopes.Allocate(f.ctx, &AllocateRequest{EnvelopeID: env.ID, Amount: dec("5"), TransactionID: &missing}); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("missing transaction error = %v", err)
	}
	if _, err := f.envelopes.CreateEnvelope(f.ctx, &CreateEnvelopeRequest{Name: "Bad", TargetAmount: dec("-1")}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative target error = %v", err)
	}
}
