// Package memoryledger is an in-memory ledger for tests and local
// development. Transactions are registered up front and looked up by hash.
package memoryledger

import (
	"context"
	"strings"
	"sync"

	"github.com/open-rails/paykit/ledger"
)

// Ledger is a hash-addressed map of mined transactions. Safe for concurrent
// use.
type Ledger struct {
	mu  sync.RWMutex
	txs map[string]*ledger.Transaction
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{txs: make(map[string]*ledger.Transaction)}
}

// Put registers a mined transaction.
func (l *Ledger) Put(tx *ledger.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs[strings.ToLower(tx.Hash)] = tx
}

// TransactionByHash implements ledger.Ledger.
func (l *Ledger) TransactionByHash(ctx context.Context, hash string) (*ledger.Transaction, error) {
	_ = ctx
	l.mu.RLock()
	defer l.mu.RUnlock()
	tx, ok := l.txs[strings.ToLower(hash)]
	if !ok {
		return nil, ledger.ErrTxNotFound
	}
	return tx, nil
}
