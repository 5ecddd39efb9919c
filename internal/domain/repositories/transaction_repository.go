package repositories

import (
	"context"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
)

// TransactionRepository defines the interface for the transaction ledger
type TransactionRepository interface {
	// Insert appends a ledger entry. Returns false with a nil error when an
	// entry with the same transaction hash already exists.
	Insert(ctx context.Context, tx *entities.Transaction) (bool, error)

	// GetByHash retrieves a ledger entry, nil if not found
	GetByHash(ctx context.Context, txHash string) (*entities.Transaction, error)

	// GetByFilter retrieves ledger entries matching the given filter
	GetByFilter(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error)

	// GetCount returns the count of ledger entries matching the filter
	GetCount(ctx context.Context, filter entities.TransactionFilter) (int64, error)

	// MaxBlockNumber returns the highest block number in the ledger, 0 if empty
	MaxBlockNumber(ctx context.Context) (int64, error)
}
