package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/domain/repositories"
)

// Ensure NFTRepo implements NFTRepository
var _ repositories.NFTRepository = (*NFTRepo)(nil)

// NFTRepo implements NFTRepository using PostgreSQL
type NFTRepo struct {
	db *sqlx.DB
}

// NewNFTRepo creates a new NFT repository
func NewNFTRepo(db *sqlx.DB) *NFTRepo {
	return &NFTRepo{db: db}
}

// GetByTokenID retrieves an ownership record by token id
func (r *NFTRepo) GetByTokenID(ctx context.Context, tokenID int64) (*entities.NFT, error) {
	var nft entities.NFT
	query := `SELECT * FROM nfts WHERE token_id = $1`

	if err := r.db.GetContext(ctx, &nft, query, tokenID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}

	return &nft, nil
}

// GetByFilter retrieves ownership records matching the given filter
func (r *NFTRepo) GetByFilter(ctx context.Context, filter entities.NFTFilter) ([]entities.NFT, error) {
	query, args := r.buildFilterQuery(filter, false)

	var nfts []entities.NFT
	if err := r.db.SelectContext(ctx, &nfts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get nfts: %w", err)
	}

	return nfts, nil
}

// GetCount returns the count of ownership records matching the filter
func (r *NFTRepo) GetCount(ctx context.Context, filter entities.NFTFilter) (int64, error) {
	query, args := r.buildFilterQuery(filter, true)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to get nft count: %w", err)
	}

	return count, nil
}

// buildFilterQuery builds the SQL query for filtering ownership records
func (r *NFTRepo) buildFilterQuery(filter entities.NFTFilter, countOnly bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.Owner != nil {
		conditions = append(conditions, fmt.Sprintf("owner_address = $%d", argIdx))
		args = append(args, *filter.Owner)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	if countOnly {
		return fmt.Sprintf("SELECT COUNT(*) FROM nfts %s", whereClause), args
	}

	query := fmt.Sprintf(`
		SELECT token_id, owner_address, token_uri, created_at, updated_at
		FROM nfts
		%s
		ORDER BY token_id ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, filter.Offset)

	return query, args
}

// Create inserts a new ownership record
func (r *NFTRepo) Create(ctx context.Context, nft *entities.NFT) error {
	query := `
		INSERT INTO nfts (token_id, owner_address, token_uri)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, nft.TokenID, nft.Owner, nft.TokenURI)
	if err != nil {
		return fmt.Errorf("failed to create nft: %w", err)
	}

	return nil
}

// UpdateOwner overwrites the current holder of a token
func (r *NFTRepo) UpdateOwner(ctx context.Context, tokenID int64, owner string) error {
	query := `
		UPDATE nfts SET
			owner_address = $2,
			updated_at = NOW()
		WHERE token_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, tokenID, owner)
	if err != nil {
		return fmt.Errorf("failed to update nft owner: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("nft %d not found", tokenID)
	}

	return nil
}

// AppendHistory appends a transfer history entry. The (token_id, tx_hash)
// unique constraint makes replaying an overlapping block range safe.
func (r *NFTRepo) AppendHistory(ctx context.Context, entry *entities.TransferHistoryEntry) error {
	query := `
		INSERT INTO nft_transfer_history (token_id, from_address, to_address, tx_hash, block_number, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_id, tx_hash) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.TokenID,
		entry.FromAddress,
		entry.ToAddress,
		entry.TxHash,
		entry.BlockNumber,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append transfer history: %w", err)
	}

	return nil
}

// GetHistory retrieves the full transfer history for a token in append order
func (r *NFTRepo) GetHistory(ctx context.Context, tokenID int64) ([]entities.TransferHistoryEntry, error) {
	query := `
		SELECT id, token_id, from_address, to_address, tx_hash, block_number, timestamp
		FROM nft_transfer_history
		WHERE token_id = $1
		ORDER BY id ASC
	`

	var entries []entities.TransferHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, tokenID); err != nil {
		return nil, fmt.Errorf("failed to get transfer history: %w", err)
	}

	return entries, nil
}
