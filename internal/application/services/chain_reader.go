package services

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainReader is the read-only view of the chain the indexer consumes.
// Implemented by ethereum.Client; failures propagate to the caller, which
// decides whether the current poll cycle can continue.
type ChainReader interface {
	// GetLatestBlockNumber returns the current chain head
	GetLatestBlockNumber(ctx context.Context) (uint64, error)

	// GetTransferLogs returns Transfer logs for the bound contract within the
	// given block range, in ascending block/log-index order
	GetTransferLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)

	// GetTransactionByHash returns the transaction carrying an event
	GetTransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error)

	// GetTransactionReceipt returns the receipt carrying gas usage and status
	GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TokenURISource resolves a token's metadata URI from the chain.
// Implemented by ethereum.TokenURIFetcher.
type TokenURISource interface {
	TokenURI(ctx context.Context, tokenID int64) (string, error)
}
