// Package ledger defines the payment-ledger port consumed by the verifier:
// an append-only system of record for transactions, addressed by hash.
// Implementations live in ledger/eth (JSON-RPC node) and ledger/memory (stub).
package ledger

import (
	"context"
	"errors"
	"math/big"
)

// ErrTxNotFound is returned when the hash names no mined transaction. An
// unmined (pending) transaction is reported the same way: until it is mined
// it proves nothing.
var ErrTxNotFound = errors.New("ledger: transaction not found")

// Transaction is the subset of a mined transaction the verifier needs.
// Addresses are 0x-prefixed hex; comparison is case-insensitive since
// checksumming varies by source.
type Transaction struct {
	Hash  string
	From  string
	To    string
	Value *big.Int
	// Input is the raw calldata. The buyer's client writes the ASCII
	// announcement payload here; see DecodePayload.
	Input []byte
}

// Ledger looks up transactions by hash.
type Ledger interface {
	TransactionByHash(ctx context.Context, hash string) (*Transaction, error)
}
