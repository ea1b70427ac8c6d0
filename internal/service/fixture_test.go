package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finledger/internal/config"
	"finledger/internal/infrastructure/database"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/logger"
	"finledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	locker *lock.LocalLocker

	ledger     *LedgerService
	transfers  *TransferService
	debts      *DebtService
	envelopes  *EnvelopeService
	recurring  *RecurringService
	reconcile  *ReconcileService
	accounts   *AccountService
	currencies *CurrencyService
	categories *CategoryService

	expense  *model.TransactionType
	income   *model.TransactionType
	transfer *model.TransactionType
}

// newFixture opens a fresh SQLite ledger with EUR and USD (1 EUR = 1.1 USD)
// and one transaction type per category.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{
		Driver:   database.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel: "silent",
	}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	locker := lock.NewLocalLocker()
	log := logger.Nop()

	f := &fixture{
		t:          t,
		ctx:        context.Background(),
		db:         db,
		locker:     locker,
		ledger:     NewLedgerService(db, locker, cfg, log),
		transfers:  NewTransferService(db, locker, cfg, log),
		debts:      NewDebtService(db, locker, cfg, log),
		envelopes:  NewEnvelopeService(db, locker, cfg, log),
		recurring:  NewRecurringService(db, locker, cfg, log),
		reconcile:  NewReconcileService(db, locker, cfg, log),
		accounts:   NewAccountService(db, locker, cfg, log),
		currencies: NewCurrencyService(db),
		categories: NewCategoryService(db),
	}

	f.currency("EUR", decimal.NewFromInt(1))
	f.currency("USD", decimal.NewFromInt(1).Div(dec("1.1")))

	f.expense = f.txType("Groceries", model.CategoryExpense)
	f.income = f.txType("Salary", model.CategoryIncome)
	f.transfer = f.txType("Transfer", model.CategoryTransfer)
	return f
}

func (f *fixture) currency(code string, rate decimal.Decimal) {
	f.t.Helper()
	_, err := f.currencies.UpsertCurrency(f.ctx, &UpsertCurrencyRequest{Code: code, ExchangeRateToEUR: rate})
	if err != nil {
		f.t.Fatalf("upsert currency %s: %v", code, err)
	}
}

func (f *fixture) txType(name, category string) *model.TransactionType {
	f.t.Helper()
	typ, err := f.categories.CreateType(f.ctx, name, category)
	if err != nil {
		f.t.Fatalf("create type %s: %v", name, err)
	}
	return typ
}

func (f *fixture) account(name, currency, opening string) *model.Account {
	f.t.Helper()
	account, err := f.accounts.CreateAccount(f.ctx, &CreateAccountRequest{
		Name:           name,
		Currency:       currency,
		OpeningBalance: dec(opening),
	})
	if err != nil {
		f.t.Fatalf("create account %s: %v", name, err)
	}
	return account
}

func (f *fixture) post(accountID int64, amount string, typ *model.TransactionType, confirmed bool) *model.Transaction {
	f.t.Helper()
	req := &PostTransactionRequest{
		AccountID: accountID,
		Date:      day(2024, time.March, 10),
		Amount:    dec(amount),
		Confirmed: confirmed,
	}
	if typ != nil {
		req.TypeID = &typ.ID
	}
	trans, err := f.ledger.PostTransaction(f.ctx, req)
	if err != nil {
		f.t.Fatalf("post %s on %d: %v", amount, accountID, err)
	}
	return trans
}

func (f *fixture) balance(accountID int64) decimal.Decimal {
	f.t.Helper()
	account, err := f.accounts.GetAccount(f.ctx, accountID)
	if err != nil {
		f.t.Fatalf("get account %d: %v", accountID, err)
	}
	return account.Balance
}

func (f *fixture) wantBalance(accountID int64, want string) {
	f.t.Helper()
	if got := f.balance(accountID); !got.Equal(dec(want)) {
		f.t.Fatalf("account %d balance = %s, want %s", accountID, got, want)
	}
}

func (f *fixture) countRows(m interface{}) int64 {
	f.t.Helper()
	var n int64
	if err := f.db.Model(m).Count(&n).Error; err != nil {
		f.t.Fatalf("count %T: %v", m, err)
	}
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
