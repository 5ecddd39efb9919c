package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/datjpro/viepropchain-indexer/internal/config"
	"github.com/datjpro/viepropchain-indexer/internal/testutil"
)

func setupPollerTest() (*Poller, *testutil.MockChainReader, *testutil.MockNFTRepository, *testutil.MockTransactionRepository) {
	chain := testutil.NewMockChainReader()
	nftRepo := testutil.NewMockNFTRepository()
	propertyRepo := testutil.NewMockPropertyRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	tokenURI := testutil.NewMockTokenURISource()
	logger := zap.NewNop()

	syncService := NewSyncService(nftRepo, propertyRepo, tokenURI, logger)
	processor := NewTransferProcessor(chain, syncService, transactionRepo, logger)

	// A long interval keeps the ticker quiet; tests drive Poll directly
	cfg := config.IndexerConfig{PollInterval: time.Hour}
	poller := NewPoller(chain, processor, transactionRepo, cfg, logger)
	return poller, chain, nftRepo, transactionRepo
}

func countCalls(calls []testutil.MockCall, method string) int {
	n := 0
	for _, c := range calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func TestPoller_StartRecoversCheckpointFromLedger(t *testing.T) {
	poller, chain, _, transactionRepo := setupPollerTest()
	ctx := context.Background()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(1)), testutil.WithBlockNumber(120)),
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(2)), testutil.WithBlockNumber(150)),
	)
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 150, nil
	}

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poller.Stop()

	if got := poller.LastProcessedBlock(); got != 150 {
		t.Errorf("expected checkpoint 150 from ledger, got %d", got)
	}
	if chain.GetLogsCalls != 0 {
		t.Errorf("expected no log queries with head at checkpoint, got %d", chain.GetLogsCalls)
	}
}

func TestPoller_StartFallsBackToChainHead(t *testing.T) {
	poller, chain, _, _ := setupPollerTest()
	ctx := context.Background()

	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 100, nil
	}

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poller.Stop()

	// With an empty ledger the indexer starts at the head and skips history
	if got := poller.LastProcessedBlock(); got != 100 {
		t.Errorf("expected checkpoint 100 from chain head, got %d", got)
	}
	if chain.GetLogsCalls != 0 {
		t.Errorf("expected no log queries on a fresh start, got %d", chain.GetLogsCalls)
	}
}

func TestPoller_StartFailsWhenCheckpointUnavailable(t *testing.T) {
	poller, chain, _, transactionRepo := setupPollerTest()
	ctx := context.Background()

	transactionRepo.MaxBlockNumberFunc = func(ctx context.Context) (int64, error) {
		return 0, errors.New("connection refused")
	}
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 100, nil
	}

	if err := poller.Start(ctx); err == nil {
		t.Fatal("expected error when ledger is unreachable")
	}
}

func TestPoller_PollProcessesUnseenRange(t *testing.T) {
	poller, chain, nftRepo, transactionRepo := setupPollerTest()
	ctx := context.Background()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(1)), testutil.WithBlockNumber(101)),
	)
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 101, nil
	}

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poller.Stop()

	// New blocks arrive: events in blocks 102 and 104, head at 105
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 105, nil
	}
	chain.GetTransferLogsFunc = func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
		if fromBlock != 102 {
			t.Errorf("expected from_block 102, got %d", fromBlock)
		}
		if toBlock != 105 {
			t.Errorf("expected to_block 105, got %d", toBlock)
		}
		return []types.Log{
			testutil.CreateMintLog(testutil.TestAddressAlice, 1, 102, testutil.TestTxHash(2)),
			testutil.CreateTransferLog(testutil.TestAddressAlice, testutil.TestAddressBob, 1, 104, testutil.TestTxHash(3)),
		}, nil
	}

	poller.Poll(ctx)

	if got := poller.LastProcessedBlock(); got != 105 {
		t.Errorf("expected checkpoint 105, got %d", got)
	}

	nft, _ := nftRepo.GetByTokenID(ctx, 1)
	if nft == nil {
		t.Fatal("expected ownership record")
	}
	if nft.Owner != testutil.TestAddressBob {
		t.Errorf("expected owner %s, got %s", testutil.TestAddressBob, nft.Owner)
	}
	if transactionRepo.Count() != 3 {
		t.Errorf("expected 3 ledger entries, got %d", transactionRepo.Count())
	}
}

func TestPoller_PollSkipsWhenNoNewBlocks(t *testing.T) {
	poller, chain, _, transactionRepo := setupPollerTest()
	ctx := context.Background()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(1)), testutil.WithBlockNumber(200)),
	)
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 200, nil
	}

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poller.Stop()

	poller.Poll(ctx)
	poller.Poll(ctx)

	if chain.GetLogsCalls != 0 {
		t.Errorf("expected zero log queries while head is at checkpoint, got %d", chain.GetLogsCalls)
	}
	if got := poller.LastProcessedBlock(); got != 200 {
		t.Errorf("checkpoint must not move without new blocks, got %d", got)
	}
}

func TestPoller_TransportErrorKeepsCheckpoint(t *testing.T) {
	poller, chain, _, transactionRepo := setupPollerTest()
	ctx := context.Background()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(1)), testutil.WithBlockNumber(101)),
	)
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 101, nil
	}

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poller.Stop()

	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 110, nil
	}
	chain.GetTransferLogsFunc = func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
		return nil, errors.New("rpc timeout")
	}

	poller.Poll(ctx)

	if got := poller.LastProcessedBlock(); got != 101 {
		t.Errorf("checkpoint must not advance on a failed fetch, got %d", got)
	}

	// Once the node recovers, the same range is retried
	var retriedFrom uint64
	chain.GetTransferLogsFunc = func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
		retriedFrom = fromBlock
		return []types.Log{}, nil
	}

	poller.Poll(ctx)

	if retriedFrom != 102 {
		t.Errorf("expected retry from block 102, got %d", retriedFrom)
	}
	if got := poller.LastProcessedBlock(); got != 110 {
		t.Errorf("expected checkpoint 110 after recovery, got %d", got)
	}
}

func TestPoller_EventFailureStillAdvancesCheckpoint(t *testing.T) {
	poller, chain, _, transactionRepo := setupPollerTest()
	ctx := context.Background()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(1)), testutil.WithBlockNumber(101)),
	)
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 101, nil
	}

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poller.Stop()

	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		return 105, nil
	}
	chain.GetTransferLogsFunc = func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
		// Transfer of a token with no ownership record: sync fails
		return []types.Log{
			testutil.CreateTransferLog(testutil.TestAddressAlice, testutil.TestAddressBob, 42, 103, testutil.TestTxHash(2)),
		}, nil
	}

	poller.Poll(ctx)

	if got := poller.LastProcessedBlock(); got != 105 {
		t.Errorf("per-event failures must not hold the checkpoint back, got %d", got)
	}
}

func TestPoller_OverlappingTickIsDropped(t *testing.T) {
	poller, chain, _, _ := setupPollerTest()
	ctx := context.Background()

	headStarted := make(chan struct{})
	headRelease := make(chan struct{})
	chain.GetLatestBlockNumberFunc = func(ctx context.Context) (uint64, error) {
		close(headStarted)
		<-headRelease
		return 10, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Poll(ctx)
	}()

	// Wait until the first cycle is mid-flight, then fire a second tick
	<-headStarted
	poller.Poll(ctx)

	close(headRelease)
	wg.Wait()

	if got := countCalls(chain.Calls, "GetLatestBlockNumber"); got != 1 {
		t.Errorf("expected the overlapping tick to be dropped, got %d head queries", got)
	}
	if chain.MaxConcurrentGetLogs > 1 {
		t.Errorf("log queries must never overlap, saw %d concurrent", chain.MaxConcurrentGetLogs)
	}
	if got := poller.LastProcessedBlock(); got != 10 {
		t.Errorf("expected checkpoint 10, got %d", got)
	}
}
