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

// Ensure TransactionRepo implements TransactionRepository
var _ repositories.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implements TransactionRepository using PostgreSQL
type TransactionRepo struct {
	db *sqlx.DB
}

// NewTransactionRepo creates a new transaction ledger repository
func NewTransactionRepo(db *sqlx.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Insert appends a ledger entry. A duplicate transaction hash is not an error:
// the conflict is swallowed and Insert reports that nothing was written, which
// is what makes replaying an overlapping block range safe.
func (r *TransactionRepo) Insert(ctx context.Context, tx *entities.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (tx_hash, type, from_address, to_address, token_id,
								  block_number, gas_used, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tx_hash) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.TxHash,
		tx.Type,
		tx.FromAddress,
		tx.ToAddress,
		tx.TokenID,
		tx.BlockNumber,
		tx.GasUsed,
		tx.Status,
		tx.Timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// GetByHash retrieves a ledger entry by transaction hash
func (r *TransactionRepo) GetByHash(ctx context.Context, txHash string) (*entities.Transaction, error) {
	var tx entities.Transaction
	query := `SELECT * FROM transactions WHERE tx_hash = $1`

	if err := r.db.GetContext(ctx, &tx, query, txHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

// GetByFilter retrieves ledger entries matching the given filter
func (r *TransactionRepo) GetByFilter(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error) {
	query, args := r.buildFilterQuery(filter, false)

	var txs []entities.Transaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return txs, nil
}

// GetCount returns the count of ledger entries matching the filter
func (r *TransactionRepo) GetCount(ctx context.Context, filter entities.TransactionFilter) (int64, error) {
	query, args := r.buildFilterQuery(filter, true)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to get transaction count: %w", err)
	}

	return count, nil
}

// buildFilterQuery builds the SQL query for filtering ledger entries
func (r *TransactionRepo) buildFilterQuery(filter entities.TransactionFilter, countOnly bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *filter.Type)
		argIdx++
	}

	if filter.Address != nil {
		conditions = append(conditions, fmt.Sprintf("(from_address = $%d OR to_address = $%d)", argIdx, argIdx))
		args = append(args, *filter.Address)
		argIdx++
	}

	if filter.TokenID != nil {
		conditions = append(conditions, fmt.Sprintf("token_id = $%d", argIdx))
		args = append(args, *filter.TokenID)
		argIdx++
	}

	if filter.FromBlock != nil {
		conditions = append(conditions, fmt.Sprintf("block_number >= $%d", argIdx))
		args = append(args, *filter.FromBlock)
		argIdx++
	}

	if filter.ToBlock != nil {
		conditions = append(conditions, fmt.Sprintf("block_number <= $%d", argIdx))
		args = append(args, *filter.ToBlock)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	if countOnly {
		return fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", whereClause), args
	}

	query := fmt.Sprintf(`
		SELECT tx_hash, type, from_address, to_address, token_id,
			   block_number, gas_used, status, timestamp, created_at
		FROM transactions
		%s
		ORDER BY block_number DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, filter.Offset)

	return query, args
}

// MaxBlockNumber returns the highest block number in the ledger, 0 if empty.
// The poll scheduler derives its startup checkpoint from this value.
func (r *TransactionRepo) MaxBlockNumber(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(MAX(block_number), 0) FROM transactions`

	var blockNumber int64
	if err := r.db.GetContext(ctx, &blockNumber, query); err != nil {
		return 0, fmt.Errorf("failed to get max block number: %w", err)
	}

	return blockNumber, nil
}
