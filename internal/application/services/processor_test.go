package services

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/testutil"
)

func setupProcessorTest() (*TransferProcessor, *testutil.MockChainReader, *testutil.MockNFTRepository, *testutil.MockTransactionRepository) {
	chain := testutil.NewMockChainReader()
	nftRepo := testutil.NewMockNFTRepository()
	propertyRepo := testutil.NewMockPropertyRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	tokenURI := testutil.NewMockTokenURISource()
	logger := zap.NewNop()

	syncService := NewSyncService(nftRepo, propertyRepo, tokenURI, logger)
	processor := NewTransferProcessor(chain, syncService, transactionRepo, logger)
	return processor, chain, nftRepo, transactionRepo
}

func TestProcessLogs_MintThenTransfer(t *testing.T) {
	processor, _, nftRepo, transactionRepo := setupProcessorTest()
	ctx := context.Background()

	logs := []types.Log{
		testutil.CreateMintLog(testutil.TestAddressAlice, 1, 100, testutil.TestTxHash(1)),
		testutil.CreateTransferLog(testutil.TestAddressAlice, testutil.TestAddressBob, 1, 101, testutil.TestTxHash(2)),
	}

	processed, failed := processor.ProcessLogs(ctx, logs)
	if processed != 2 {
		t.Errorf("expected 2 processed, got %d", processed)
	}
	if failed != 0 {
		t.Errorf("expected 0 failed, got %d", failed)
	}

	nft, _ := nftRepo.GetByTokenID(ctx, 1)
	if nft == nil {
		t.Fatal("expected ownership record")
	}
	if nft.Owner != testutil.TestAddressBob {
		t.Errorf("expected final owner %s, got %s", testutil.TestAddressBob, nft.Owner)
	}

	if transactionRepo.Count() != 2 {
		t.Errorf("expected 2 ledger entries, got %d", transactionRepo.Count())
	}

	mintTx, _ := transactionRepo.GetByHash(ctx, testutil.TestTxHash(1))
	if mintTx == nil {
		t.Fatal("expected mint ledger entry")
	}
	if mintTx.Type != entities.TxTypeMint {
		t.Errorf("expected mint type, got %s", mintTx.Type)
	}
	transferTx, _ := transactionRepo.GetByHash(ctx, testutil.TestTxHash(2))
	if transferTx.Type != entities.TxTypeTransfer {
		t.Errorf("expected transfer type, got %s", transferTx.Type)
	}
}

func TestProcessLogs_OrderPreserved(t *testing.T) {
	processor, _, nftRepo, _ := setupProcessorTest()
	ctx := context.Background()

	// Two hops of the same token in one batch: the later event must win
	logs := []types.Log{
		testutil.CreateMintLog(testutil.TestAddressAlice, 1, 100, testutil.TestTxHash(1)),
		testutil.CreateTransferLog(testutil.TestAddressAlice, testutil.TestAddressBob, 1, 100, testutil.TestTxHash(2)),
		testutil.CreateTransferLog(testutil.TestAddressBob, testutil.TestAddressCharlie, 1, 100, testutil.TestTxHash(3)),
	}

	processed, failed := processor.ProcessLogs(ctx, logs)
	if processed != 3 || failed != 0 {
		t.Fatalf("expected 3 processed and 0 failed, got %d/%d", processed, failed)
	}

	nft, _ := nftRepo.GetByTokenID(ctx, 1)
	if nft.Owner != testutil.TestAddressCharlie {
		t.Errorf("expected owner %s after ordered replay, got %s", testutil.TestAddressCharlie, nft.Owner)
	}

	history, _ := nftRepo.GetHistory(ctx, 1)
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	if history[0].ToAddress != testutil.TestAddressAlice || history[2].ToAddress != testutil.TestAddressCharlie {
		t.Error("history entries out of order")
	}
}

func TestProcessLogs_FailedEventSkipped(t *testing.T) {
	processor, _, nftRepo, transactionRepo := setupProcessorTest()
	ctx := context.Background()

	// The second event references a token that was never minted; it must fail
	// without stopping the batch
	logs := []types.Log{
		testutil.CreateMintLog(testutil.TestAddressAlice, 1, 100, testutil.TestTxHash(1)),
		testutil.CreateTransferLog(testutil.TestAddressAlice, testutil.TestAddressBob, 99, 100, testutil.TestTxHash(2)),
		testutil.CreateTransferLog(testutil.TestAddressAlice, testutil.TestAddressBob, 1, 101, testutil.TestTxHash(3)),
	}

	processed, failed := processor.ProcessLogs(ctx, logs)
	if processed != 2 {
		t.Errorf("expected 2 processed, got %d", processed)
	}
	if failed != 1 {
		t.Errorf("expected 1 failed, got %d", failed)
	}

	nft, _ := nftRepo.GetByTokenID(ctx, 1)
	if nft.Owner != testutil.TestAddressBob {
		t.Errorf("expected owner %s, got %s", testutil.TestAddressBob, nft.Owner)
	}

	// The failed event must not reach the ledger
	if transactionRepo.Count() != 2 {
		t.Errorf("expected 2 ledger entries, got %d", transactionRepo.Count())
	}
	if tx, _ := transactionRepo.GetByHash(ctx, testutil.TestTxHash(2)); tx != nil {
		t.Error("failed event must not be recorded in the ledger")
	}
}

func TestProcessLogs_DuplicateLedgerInsertIsNoOp(t *testing.T) {
	processor, _, _, transactionRepo := setupProcessorTest()
	ctx := context.Background()

	mint := testutil.CreateMintLog(testutil.TestAddressAlice, 1, 100, testutil.TestTxHash(1))

	processed, failed := processor.ProcessLogs(ctx, []types.Log{mint})
	if processed != 1 || failed != 0 {
		t.Fatalf("expected 1/0, got %d/%d", processed, failed)
	}

	// Replaying the same log (overlap after a crash) must not error and must
	// not duplicate the ledger entry
	processed, failed = processor.ProcessLogs(ctx, []types.Log{mint})
	if processed != 1 || failed != 0 {
		t.Fatalf("expected replay to succeed, got %d/%d", processed, failed)
	}

	if transactionRepo.Count() != 1 {
		t.Errorf("expected 1 ledger entry after replay, got %d", transactionRepo.Count())
	}
}

func TestProcessLogs_RevertedTransactionStatus(t *testing.T) {
	processor, chain, _, transactionRepo := setupProcessorTest()
	ctx := context.Background()

	chain.GetTransactionReceiptFunc = func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
		return &types.Receipt{
			Status:  types.ReceiptStatusFailed,
			GasUsed: 30000,
		}, nil
	}

	logs := []types.Log{
		testutil.CreateMintLog(testutil.TestAddressAlice, 1, 100, testutil.TestTxHash(1)),
	}

	processed, failed := processor.ProcessLogs(ctx, logs)
	if processed != 1 || failed != 0 {
		t.Fatalf("expected 1/0, got %d/%d", processed, failed)
	}

	tx, _ := transactionRepo.GetByHash(ctx, testutil.TestTxHash(1))
	if tx.Status != entities.TxStatusFailed {
		t.Errorf("expected failed status, got %s", tx.Status)
	}
	if tx.GasUsed != 30000 {
		t.Errorf("expected gas used 30000, got %d", tx.GasUsed)
	}
}

func TestProcessLogs_UndecodableLogCounted(t *testing.T) {
	processor, _, _, transactionRepo := setupProcessorTest()
	ctx := context.Background()

	// A three-topic (ERC-20 shaped) log cannot be decoded
	bad := testutil.CreateMintLog(testutil.TestAddressAlice, 1, 100, testutil.TestTxHash(1))
	bad.Topics = bad.Topics[:3]

	processed, failed := processor.ProcessLogs(ctx, []types.Log{bad})
	if processed != 0 {
		t.Errorf("expected 0 processed, got %d", processed)
	}
	if failed != 1 {
		t.Errorf("expected 1 failed, got %d", failed)
	}
	if transactionRepo.Count() != 0 {
		t.Errorf("expected empty ledger, got %d entries", transactionRepo.Count())
	}
}
