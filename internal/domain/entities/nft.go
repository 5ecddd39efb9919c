package entities

import (
	"time"
)

// ZeroAddress is the all-zero sender address that marks a mint
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NFT is the canonical ownership record for a property token.
// One row per token id; created once at mint, owner mutated on every transfer.
type NFT struct {
	TokenID   int64     `db:"token_id"`
	Owner     string    `db:"owner_address"`
	TokenURI  string    `db:"token_uri"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TransferHistoryEntry is one hop in a token's ownership history.
// Rows are append-only and unique per (token_id, tx_hash).
type TransferHistoryEntry struct {
	ID          int64     `db:"id"`
	TokenID     int64     `db:"token_id"`
	FromAddress string    `db:"from_address"`
	ToAddress   string    `db:"to_address"`
	TxHash      string    `db:"tx_hash"`
	BlockNumber int64     `db:"block_number"`
	Timestamp   time.Time `db:"timestamp"`
}

// NFTFilter contains filters for querying ownership records
type NFTFilter struct {
	Owner  *string
	Limit  int
	Offset int
}

// DefaultNFTFilter returns a filter with sensible defaults
func DefaultNFTFilter() NFTFilter {
	return NFTFilter{
		Limit:  100,
		Offset: 0,
	}
}
