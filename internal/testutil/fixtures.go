package testutil

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/infrastructure/ethereum"
)

// Test addresses used across the suite
const (
	TestAddressAlice    = "0x1111111111111111111111111111111111111111"
	TestAddressBob      = "0x2222222222222222222222222222222222222222"
	TestAddressCharlie  = "0x3333333333333333333333333333333333333333"
	TestContractAddress = "0x9999999999999999999999999999999999999999"
)

// TestTxHash builds a deterministic transaction hash from a sequence number
func TestTxHash(n int) string {
	return fmt.Sprintf("0x%064x", n)
}

// NFTOption configures a test ownership record
type NFTOption func(*entities.NFT)

func WithTokenID(tokenID int64) NFTOption {
	return func(n *entities.NFT) { n.TokenID = tokenID }
}

func WithOwner(owner string) NFTOption {
	return func(n *entities.NFT) { n.Owner = owner }
}

func WithTokenURI(uri string) NFTOption {
	return func(n *entities.NFT) { n.TokenURI = uri }
}

// CreateTestNFT creates a test ownership record with default values
func CreateTestNFT(opts ...NFTOption) *entities.NFT {
	now := time.Now().UTC()
	nft := &entities.NFT{
		TokenID:   1,
		Owner:     TestAddressAlice,
		TokenURI:  "ipfs://property-metadata/1",
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, opt := range opts {
		opt(nft)
	}

	return nft
}

// TransactionOption configures a test ledger entry
type TransactionOption func(*entities.Transaction)

func WithTxHash(txHash string) TransactionOption {
	return func(t *entities.Transaction) { t.TxHash = txHash }
}

func WithTxType(txType entities.TxType) TransactionOption {
	return func(t *entities.Transaction) { t.Type = txType }
}

func WithTxAddresses(from, to string) TransactionOption {
	return func(t *entities.Transaction) {
		t.FromAddress = from
		t.ToAddress = to
	}
}

func WithTxTokenID(tokenID int64) TransactionOption {
	return func(t *entities.Transaction) { t.TokenID = tokenID }
}

func WithBlockNumber(block int64) TransactionOption {
	return func(t *entities.Transaction) { t.BlockNumber = block }
}

func WithTxStatus(status entities.TxStatus) TransactionOption {
	return func(t *entities.Transaction) { t.Status = status }
}

// CreateTestTransaction creates a test ledger entry with default values
func CreateTestTransaction(opts ...TransactionOption) *entities.Transaction {
	now := time.Now().UTC()
	tx := &entities.Transaction{
		TxHash:      TestTxHash(1),
		Type:        entities.TxTypeTransfer,
		FromAddress: TestAddressAlice,
		ToAddress:   TestAddressBob,
		TokenID:     1,
		BlockNumber: 100,
		GasUsed:     21000,
		Status:      entities.TxStatusSuccess,
		Timestamp:   now,
		CreatedAt:   now,
	}

	for _, opt := range opts {
		opt(tx)
	}

	return tx
}

// HistoryOption configures a test history entry
type HistoryOption func(*entities.TransferHistoryEntry)

func WithHistoryTokenID(tokenID int64) HistoryOption {
	return func(e *entities.TransferHistoryEntry) { e.TokenID = tokenID }
}

func WithHistoryAddresses(from, to string) HistoryOption {
	return func(e *entities.TransferHistoryEntry) {
		e.FromAddress = from
		e.ToAddress = to
	}
}

func WithHistoryTxHash(txHash string) HistoryOption {
	return func(e *entities.TransferHistoryEntry) { e.TxHash = txHash }
}

// CreateTestHistoryEntry creates a test transfer history entry with default values
func CreateTestHistoryEntry(opts ...HistoryOption) *entities.TransferHistoryEntry {
	entry := &entities.TransferHistoryEntry{
		TokenID:     1,
		FromAddress: TestAddressAlice,
		ToAddress:   TestAddressBob,
		TxHash:      TestTxHash(1),
		BlockNumber: 100,
		Timestamp:   time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(entry)
	}

	return entry
}

// CreateTransferLog builds a raw ERC-721 Transfer log the way eth_getLogs
// returns it: topic0 is the event signature and the token id rides in topic3
func CreateTransferLog(from, to string, tokenID int64, blockNumber uint64, txHash string) types.Log {
	return types.Log{
		Address: common.HexToAddress(TestContractAddress),
		Topics: []common.Hash{
			ethereum.TransferEventSignature,
			common.BytesToHash(common.HexToAddress(from).Bytes()),
			common.BytesToHash(common.HexToAddress(to).Bytes()),
			common.BigToHash(new(big.Int).SetInt64(tokenID)),
		},
		Data:        []byte{},
		BlockNumber: blockNumber,
		TxHash:      common.HexToHash(txHash),
		Index:       0,
	}
}

// CreateMintLog builds a Transfer log from the zero address
func CreateMintLog(to string, tokenID int64, blockNumber uint64, txHash string) types.Log {
	return CreateTransferLog(entities.ZeroAddress, to, tokenID, blockNumber, txHash)
}

// PointerTo returns a pointer to the given value
func PointerTo[T any](v T) *T {
	return &v
}
