package repositories

import (
	"context"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
)

// NFTRepository defines the interface for ownership record operations
type NFTRepository interface {
	// GetByTokenID retrieves an ownership record, nil if the token is unknown
	GetByTokenID(ctx context.Context, tokenID int64) (*entities.NFT, error)

	// GetByFilter retrieves ownership records matching the given filter
	GetByFilter(ctx context.Context, filter entities.NFTFilter) ([]entities.NFT, error)

	// GetCount returns the count of ownership records matching the filter
	GetCount(ctx context.Context, filter entities.NFTFilter) (int64, error)

	// Create inserts a new ownership record (first sighting of a token)
	Create(ctx context.Context, nft *entities.NFT) error

	// UpdateOwner overwrites the current holder of a token
	UpdateOwner(ctx context.Context, tokenID int64, owner string) error

	// AppendHistory appends a transfer history entry; appending the same
	// (tokenID, txHash) pair twice is a no-op
	AppendHistory(ctx context.Context, entry *entities.TransferHistoryEntry) error

	// GetHistory retrieves the full transfer history for a token in append order
	GetHistory(ctx context.Context, tokenID int64) ([]entities.TransferHistoryEntry, error)
}
