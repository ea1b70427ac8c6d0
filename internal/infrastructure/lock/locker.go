package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Locker serializes work on a set of keys. The returned func releases every
// key; it must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (func(), error)
}

// AccountKey is the lock key guarding one account's cached balance.
func AccountKey(accountID int64) string {
	return fmt.Sprintf("ledger:lock:account:%d", accountID)
}

// EnvelopeKey guards an envelope's current amount.
func EnvelopeKey(envelopeID int64) string {
	return fmt.Sprintf("ledger:lock:envelope:%d", envelopeID)
}

// DebtKey guards a debt's current balance.
func DebtKey(debtID int64) string {
	return fmt.Sprintf("ledger:lock:debt:%d", debtID)
}

// LocalLocker is an in-process keyed mutex for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*refMutex)}
}

// Acquire blocks until all keys are held. Keys are taken in sorted order so
// two callers locking overlapping sets cannot deadlock.
func (l *LocalLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedUnique(keys)
	held := make([]string, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			release()
			return nil, err
		}
		l.lock(key)
		held = append(held, key)
	}
	return release, nil
}

func (l *LocalLocker) lock(key string) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.mu.Lock()
}

func (l *LocalLocker) unlock(key string) {
	l.mu.Lock()
	m := l.locks[key]
	m.refs--
	if m.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	m.mu.Unlock()
}

func sortedUnique(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RecurringKey guards materialization of one recurring template.
func RecurringKey(templateID int64) string {
	return fmt.Sprintf("ledger:lock:recurring:%d", templateID)
}
