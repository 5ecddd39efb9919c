package entities

import (
	"time"
)

// TxType classifies a ledger entry
type TxType string

const (
	TxTypeMint     TxType = "mint"
	TxTypeTransfer TxType = "transfer"
)

// TxStatus is the on-chain execution status of the transaction
type TxStatus string

const (
	TxStatusSuccess TxStatus = "success"
	TxStatusFailed  TxStatus = "failed"
)

// Transaction is an immutable ledger entry for a processed Transfer event,
// keyed uniquely by transaction hash.
type Transaction struct {
	TxHash      string    `db:"tx_hash"`
	Type        TxType    `db:"type"`
	FromAddress string    `db:"from_address"`
	ToAddress   string    `db:"to_address"`
	TokenID     int64     `db:"token_id"`
	BlockNumber int64     `db:"block_number"`
	GasUsed     int64     `db:"gas_used"`
	Status      TxStatus  `db:"status"`
	Timestamp   time.Time `db:"timestamp"`
	CreatedAt   time.Time `db:"created_at"`
}

// TransactionFilter contains filters for querying the ledger
type TransactionFilter struct {
	Type      *TxType
	Address   *string // matches either from or to
	TokenID   *int64
	FromBlock *int64
	ToBlock   *int64
	Limit     int
	Offset    int
}

// DefaultTransactionFilter returns a filter with sensible defaults
func DefaultTransactionFilter() TransactionFilter {
	return TransactionFilter{
		Limit:  100,
		Offset: 0,
	}
}
