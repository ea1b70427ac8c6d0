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

// ReconcileService rebuilds cached balances from the ledger rows. It is the
// repair path for drift and doubles as a periodic integrity check.
type ReconcileService struct {
	*core
	epsilon decimal.Decimal
}

func NewReconcileService(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *ReconcileService {
	c := newCore(db, locker, cfg, log.With().Str("component", "reconcile").Logger())
	epsilon, err := decimal.NewFromString(c.cfg.Ledger.DriftEpsilon)
	if err != nil || epsilon.IsNegative() {
		epsilon = decimal.New(1, -2)
	}
	return &ReconcileService{core: c, epsilon: epsilon}
}

type BalanceDrift struct {
	AccountID  int64           `json:"account_id"`
	Name       string          `json:"name"`
	Currency   string          `json:"currency"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Delta      decimal.Decimal `json:"delta"`
}

type EnvelopeDrift struct {
	EnvelopeID int64           `json:"envelope_id"`
	Name       string          `json:"name"`
	OldAmount  decimal.Decimal `json:"old_amount"`
	NewAmount  decimal.Decimal `json:"new_amount"`
	Delta      decimal.Decimal `json:"delta"`
}

// ReconcileReport lists every account and envelope whose cached value was
// off by more than the drift epsilon.
type ReconcileReport struct {
	DryRun           bool            `json:"dry_run"`
	AccountsChecked  int             `json:"accounts_checked"`
	EnvelopesChecked int             `json:"envelopes_checked"`
	Accounts         []BalanceDrift  `json:"accounts"`
	Envelopes        []EnvelopeDrift `json:"envelopes"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
}

// Clean reports whether nothing drifted.
func (r *ReconcileReport) Clean() bool {
	return len(r.Accounts) == 0 && len(r.Envelopes) == 0
}

type ReconcileOptions struct {
	// DryRun computes the report without writing anything.
	DryRun bool
}

// RecalculateAllBalances overwrites every cached balance with opening
// balance plus the sum of confirmed transactions, and every envelope amount
// with the sum of its entries.
func (s *ReconcileService) RecalculateAllBalances(ctx context.Context) (*ReconcileReport, error) {
	return s.Recalculate(ctx, ReconcileOptions{})
}

func (s *ReconcileService) Recalculate(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	report := &ReconcileReport{DryRun: opts.DryRun, StartedAt: s.now()}

	accountIDs, err := s.accountRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	for _, id := range accountIDs {
		drift, err := s.recalculateAccount(ctx, id, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("recalculate account %d: %w", id, err)
		}
		report.AccountsChecked++
		if drift != nil {
			report.Accounts = append(report.Accounts, *drift)
		}
	}

	envelopeIDs, err := s.envelopeRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list envelopes: %w", err)
	}
	for _, id := range envelopeIDs {
		drift, err := s.recalculateEnvelope(ctx, id, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("recalculate envelope %d: %w", id, err)
		}
		report.EnvelopesChecked++
		if drift != nil {
			report.Envelopes = append(report.Envelopes, *drift)
		}
	}
	report.FinishedAt = s.now()

	s.logReport(report)
	if !report.Clean() && !opts.DryRun {
		err := s.emitTo(ctx, nil, s.cfg.Kafka.Topic.Alerts, model.EventBalanceDrift,
			fmt.Sprintf("drift-%d", report.StartedAt.UnixNano()), report)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// recalculateAccount holds the account lock and row lock across the read
// of the sum and the write of the balance, so no post can slip in between.
func (s *ReconcileService) recalculateAccount(ctx context.Context, id int64, dryRun bool) (*BalanceDrift, error) {
	release, err := s.lockAccounts(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	defer release()

	var drift *BalanceDrift
	err = s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		sum, err := s.transactionRepo.ConfirmedSum(ctx, tx, account)
		if err != nil {
			return fmt.Errorf("sum transactions: %w", err)
		}

		old := account.Balance
		expected := account.OpeningBalance.Add(sum)
		delta := expected.Sub(old)
		if delta.Abs().GreaterThan(s.epsilon) {
			drift = &BalanceDrift{
				AccountID:  account.ID,
				Name:       account.Name,
				Currency:   account.Currency,
				OldBalance: old,
				NewBalance: expected,
				Delta:      delta,
			}
		}

		if dryRun || delta.IsZero() {
			return nil
		}
		if err := s.accountRepo.SetBalance(ctx, tx, account, expected); err != nil {
			return storageErr("overwrite balance", err)
		}
		return nil
	})
	return drift, err
}

func (s *ReconcileService) recalculateEnvelope(ctx context.Context, id int64, dryRun bool) (*EnvelopeDrift, error) {
	release, err := s.locker.Acquire(ctx, lock.EnvelopeKey(id))
	if err != nil {
		return nil, fmt.Errorf("acquire envelope lock: %w", err)
	}
	defer release()

	var drift *EnvelopeDrift
	err = s.db.Transaction(func(tx *gorm.DB) error {
		envelope, err := s.envelopeRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		sum, err := s.envelopeRepo.EntrySum(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("sum envelope entries: %w", err)
		}

		old := envelope.CurrentAmount
		delta := sum.Sub(old)
		if delta.Abs().GreaterThan(s.epsilon) {
			drift = &EnvelopeDrift{
				EnvelopeID: envelope.ID,
				Name:       envelope.Name,
				OldAmount:  old,
				NewAmount:  sum,
				Delta:      delta,
			}
		}

		if dryRun || delta.IsZero() {
			return nil
		}
		return s.envelopeRepo.SetCurrentAmount(ctx, tx, envelope, sum)
	})
	return drift, err
}

func (s *ReconcileService) logReport(report *ReconcileReport) {
	if report.Clean() {
		s.log.Info().
			Int("accounts", report.AccountsChecked).
			Int("envelopes", report.EnvelopesChecked).
			Msg("balances consistent")
		return
	}
	for _, d := range report.Accounts {
		s.log.Warn().
			Int64("account_id", d.AccountID).
			Str("old_balance", d.OldBalance.String()).
			Str("new_balance", d.NewBalance.String()).
			Str("delta", d.Delta.String()).
			Bool("dry_run", report.DryRun).
			Msg("account balance drift")
	}
	for _, d := range report.Envelopes {
		s.log.Warn().
			Int64("envelope_id", d.EnvelopeID).
			Str("old_amount", d.OldAmount.String()).
			Str("new_amount", d.NewAmount.String()).
			Str("delta", d.Delta.String()).
			Bool("dry_run", report.DryRun).
			Msg("envelope amount drift")
	}
}
