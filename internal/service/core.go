package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"finledger/internal/config"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/model"
	"finledger/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// core is the state every ledger service shares: storage, the account
// locker and the repositories. Services embed it.
type core struct {
	db     *gorm.DB
	locker lock.Locker
	cfg    *config.Config
	log    zerolog.Logger
	now    func() time.Time

	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	transferRepo    *repository.TransferRepository
	debtRepo        *repository.DebtRepository
	envelopeRepo    *repository.EnvelopeRepository
	recurringRepo   *repository.RecurringRepository
	currencyRepo    *repository.CurrencyRepository
	categoryRepo    *repository.CategoryRepository
	outboxRepo      *repository.OutboxRepository
}

func newCore(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *core {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &core{
		db:              db,
		locker:          locker,
		cfg:             cfg,
		log:             log,
		now:             time.Now,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		transferRepo:    repository.NewTransferRepository(db),
		debtRepo:        repository.NewDebtRepository(db),
		envelopeRepo:    repository.NewEnvelopeRepository(db),
		recurringRepo:   repository.NewRecurringRepository(db),
		currencyRepo:    repository.NewCurrencyRepository(db),
		categoryRepo:    repository.NewCategoryRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// lockAccounts takes the account locks for ids plus any extra keys.
func (c *core) lockAccounts(ctx context.Context, ids []int64, extra ...string) (func(), error) {
	keys := make([]string, 0, len(ids)+len(extra))
	for _, id := range ids {
		keys = append(keys, lock.AccountKey(id))
	}
	keys = append(keys, extra...)

	release, err := c.locker.Acquire(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	return release, nil
}

// applyEffect moves the cached balance of account by sign*trans.Amount when
// the transaction counts toward it. sign is +1 to post and -1 to reverse.
func (c *core) applyEffect(ctx context.Context, tx *gorm.DB, account *model.Account, trans *model.Transaction, sign int) error {
	if !account.CountsToward(trans.Date, trans.Confirmed) {
		return nil
	}
	delta := trans.Amount
	if sign < 0 {
		delta = delta.Neg()
	}
	if err := c.accountRepo.AddBalance(ctx, tx, account, delta); err != nil {
		return storageErr("update account balance", err)
	}
	return nil
}

// emit writes an outbox row in the caller's transaction.
func (c *core) emit(ctx context.Context, tx *gorm.DB, eventType, key string, payload interface{}) error {
	return c.emitTo(ctx, tx, c.cfg.Kafka.Topic.LedgerEvents, eventType, key, payload)
}

func (c *core) emitTo(ctx context.Context, tx *gorm.DB, topic, eventType, key string, payload interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"event":       eventType,
		"occurred_at": c.now().UTC().Format(time.RFC3339),
		"data":        payload,
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	msg := &model.OutboxMessage{
		MessageKey: key,
		EventType:  eventType,
		Topic:      topic,
		Payload:    string(body),
		Status:     model.OutboxStatusPending,
	}
	if err := c.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox message: %w", err)
	}
	return nil
}

// deleteTransferTx removes both legs of transfer and reverses each stored
// amount exactly once. Accounts must already be locked by the caller.
func (c *core) deleteTransferTx(ctx context.Context, tx *gorm.DB, transferID int64) (*model.Transfer, error) {
	transfer, err := c.transferRepo.GetByID(ctx, tx, transferID)
	if err != nil {
		return nil, err
	}

	accounts, err := c.accountRepo.LockForUpdate(ctx, tx, transfer.SourceAccountID, transfer.DestAccountID)
	if err != nil {
		return nil, err
	}

	for _, legID := range []int64{transfer.SourceTransactionID, transfer.DestTransactionID} {
		leg, err := c.transactionRepo.GetByID(ctx, tx, legID)
		if err != nil {
			return nil, fmt.Errorf("load transfer leg %d: %w", legID, err)
		}
		if err := c.applyEffect(ctx, tx, accounts[leg.AccountID], leg, -1); err != nil {
			return nil, err
		}
		if err := c.envelopeRepo.UnlinkTransaction(ctx, tx, leg.ID); err != nil {
			return nil, fmt.Errorf("unlink envelope entries: %w", err)
		}
		if err := c.transactionRepo.Delete(ctx, tx, leg.ID); err != nil {
			return nil, fmt.Errorf("delete transfer leg %d: %w", legID, err)
		}
	}

	if err := c.transferRepo.Delete(ctx, tx, transfer.ID); err != nil {
		return nil, fmt.Errorf("delete transfer: %w", err)
	}

	err = c.emit(ctx, tx, model.EventTransferDeleted, transfer.TransferNo, map[string]interface{}{
		"transfer_id":     transfer.ID,
		"source_account":  transfer.SourceAccountID,
		"dest_account":    transfer.DestAccountID,
		"amount":          transfer.Amount,
		"transfer_amount": transfer.TransferAmount,
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// deletePaymentTx removes a debt payment with its linked transaction,
// restoring the debt balance and reversing the account effect. The debt
// and account locks must already be held.
func (c *core) deletePaymentTx(ctx context.Context, tx *gorm.DB, paymentID int64) (*model.DebtPayment, error) {
	payment, err := c.debtRepo.GetPayment(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}
	debt, err := c.debtRepo.GetByIDForUpdate(ctx, tx, payment.DebtID)
	if err != nil {
		return nil, err
	}

	trans, err := c.transactionRepo.GetByID(ctx, tx, payment.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("load payment transaction: %w", err)
	}
	account, err := c.accountRepo.GetByIDForUpdate(ctx, tx, trans.AccountID)
	if err != nil {
		return nil, err
	}

	restored := debt.CurrentBalance.Add(payment.BalanceReduction())
	if err := c.debtRepo.SetCurrentBalance(ctx, tx, debt, restored); err != nil {
		return nil, fmt.Errorf("restore debt balance: %w", err)
	}
	if err := c.applyEffect(ctx, tx, account, trans, -1); err != nil {
		return nil, err
	}
	if err := c.envelopeRepo.UnlinkTransaction(ctx, tx, trans.ID); err != nil {
		return nil, fmt.Errorf("unlink envelope entries: %w", err)
	}
	if err := c.debtRepo.DeletePayment(ctx, tx, payment.ID); err != nil {
		return nil, fmt.Errorf("delete debt payment: %w", err)
	}
	if err := c.transactionRepo.Delete(ctx, tx, trans.ID); err != nil {
		return nil, fmt.Errorf("delete payment transaction: %w", err)
	}

	err = c.emit(ctx, tx, model.EventDebtPaymentDeleted, payment.PaymentNo, map[string]interface{}{
		"payment_id":      payment.ID,
		"debt_id":         debt.ID,
		"transaction_id":  trans.ID,
		"current_balance": debt.CurrentBalance,
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// removeTransfer locks both accounts and deletes the transfer.
func (c *core) removeTransfer(ctx context.Context, transferID int64) error {
	transfer, err := c.transferRepo.GetByID(ctx, nil, transferID)
	if err != nil {
		return err
	}

	release, err := c.lockAccounts(ctx, []int64{transfer.SourceAccountID, transfer.DestAccountID})
	if err != nil {
		return err
	}
	defer release()

	err = c.db.Transaction(func(tx *gorm.DB) error {
		_, err := c.deleteTransferTx(ctx, tx, transferID)
		return err
	})
	if err != nil {
		return err
	}

	c.log.Info().Int64("transfer_id", transferID).Msg("transfer deleted with both legs")
	return nil
}

// removePayment locks the debt and account and deletes the payment.
func (c *core) removePayment(ctx context.Context, payment *model.DebtPayment, accountID int64) error {
	release, err := c.lockAccounts(ctx, []int64{accountID}, lock.DebtKey(payment.DebtID))
	if err != nil {
		return err
	}
	defer release()

	err = c.db.Transaction(func(tx *gorm.DB) error {
		_, err := c.deletePaymentTx(ctx, tx, payment.ID)
		return err
	})
	if err != nil {
		return err
	}

	c.log.Info().Int64("payment_id", payment.ID).Int64("debt_id", payment.DebtID).Msg("debt payment deleted with its transaction")
	return nil
}

// checkSubtype verifies that an optional subtype belongs to typ.
func (c *core) checkSubtype(ctx context.Context, typ *model.TransactionType, subtypeID *int64) error {
	if subtypeID == nil {
		return nil
	}
	sub, err := c.categoryRepo.GetSubtype(ctx, nil, *subtypeID)
	if err != nil {
		return err
	}
	if sub.TypeID != typ.ID {
		return fmt.Errorf("%w: subtype %d does not belong to type %d", ErrInvalidRequest, sub.ID, typ.ID)
	}
	return nil
}

func (c *core) today() time.Time {
	return model.DateOnly(c.now())
}
