package service

import (
	"errors"
	"fmt"

	"finledger/internal/repository"
)

// Not-found errors are shared with the repository layer so errors.Is works
// whichever layer produced them.
var (
	ErrAccountNotFound     = repository.ErrAccountNotFound
	ErrTransactionNotFound = repository.ErrTransactionNotFound
	ErrTransferNotFound    = repository.ErrTransferNotFound
	ErrDebtNotFound        = repository.ErrDebtNotFound
	ErrPaymentNotFound     = repository.ErrPaymentNotFound
	ErrEnvelopeNotFound    = repository.ErrEnvelopeNotFound
	ErrEntryNotFound       = repository.ErrEntryNotFound
	ErrTemplateNotFound    = repository.ErrTemplateNotFound
	ErrTypeNotFound        = repository.ErrTypeNotFound
	ErrSubtypeNotFound     = repository.ErrSubtypeNotFound
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrInvalidTransfer    = errors.New("invalid transfer")
	ErrNoLinkedAccount    = errors.New("debt has no linked account")
	ErrOverpayment        = errors.New("payment exceeds debt balance")
	ErrDebtInactive       = errors.New("debt is inactive")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrImmutable          = errors.New("transaction is owned by a transfer or debt payment")
	ErrConcurrentModified = errors.New("concurrent modification, retry")
)

// storageErr wraps a repository error with what was being done. A lost
// version check becomes ErrConcurrentModified.
func storageErr(action string, err error) error {
	if errors.Is(err, repository.ErrOptimisticLock) {
		return ErrConcurrentModified
	}
	return fmt.Errorf("%s: %w", action, err)
}
