// Package ethledger implements the ledger port against an Ethereum JSON-RPC
// node via go-ethereum's ethclient.
package ethledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/open-rails/paykit/ledger"
)

// Ledger adapts an ethclient to the ledger.Ledger interface. The chain ID is
// fetched once at construction; sender recovery needs it.
type Ledger struct {
	ec     *ethclient.Client
	signer types.Signer
}

// Dial connects to the node at rawurl and prepares a signer for the node's
// chain.
func Dial(ctx context.Context, rawurl string) (*Ledger, error) {
	ec, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("ethledger: dial %s: %w", rawurl, err)
	}
	chainID, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("ethledger: chain id: %w", err)
	}
	return &Ledger{ec: ec, signer: types.LatestSignerForChainID(chainID)}, nil
}

// TransactionByHash implements ledger.Ledger. Pending transactions map to
// ledger.ErrTxNotFound: an unmined payment proves nothing yet and the next
// tick will retry.
func (l *Ledger) TransactionByHash(ctx context.Context, hash string) (*ledger.Transaction, error) {
	tx, pending, err := l.ec.TransactionByHash(ctx, common.HexToHash(hash))
	if errors.Is(err, ethereum.NotFound) {
		return nil, ledger.ErrTxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ethledger: lookup %s: %w", hash, err)
	}
	if pending {
		return nil, ledger.ErrTxNotFound
	}
	from, err := types.Sender(l.signer, tx)
	if err != nil {
		return nil, fmt.Errorf("ethledger: recover sender of %s: %w", hash, err)
	}
	to := ""
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	return &ledger.Transaction{
		Hash:  tx.Hash().Hex(),
		From:  from.Hex(),
		To:    to,
		Value: tx.Value(),
		Input: tx.Data(),
	}, nil
}

// Close releases the underlying RPC connection.
func (l *Ledger) Close() {
	l.ec.Close()
}
