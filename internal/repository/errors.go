package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrDebtNotFound        = errors.New("debt not found")
	ErrPaymentNotFound     = errors.New("debt payment not found")
	ErrEnvelopeNotFound    = errors.New("envelope not found")
	ErrEntryNotFound       = errors.New("envelope transaction not found")
	ErrTemplateNotFound    = errors.New("recurring template not found")
	ErrCurrencyNotFound    = errors.New("currency not found")
	ErrTypeNotFound        = errors.New("transaction type not found")
	ErrSubtypeNotFound     = errors.New("transaction subtype not found")
	ErrOptimisticLock      = errors.New("optimistic lock conflict, retry")
)

// pick returns tx when the caller is inside a transaction, db otherwise.
func pick(db, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return db
	}
	return tx
}
