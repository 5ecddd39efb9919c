package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
)

// MockCall records one invocation of a mock method
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockNFTRepository is a mock implementation of NFTRepository
type MockNFTRepository struct {
	mu      sync.RWMutex
	nfts    map[int64]*entities.NFT
	history []entities.TransferHistoryEntry

	// Function hooks for custom behavior
	GetByTokenIDFunc  func(ctx context.Context, tokenID int64) (*entities.NFT, error)
	GetByFilterFunc   func(ctx context.Context, filter entities.NFTFilter) ([]entities.NFT, error)
	GetCountFunc      func(ctx context.Context, filter entities.NFTFilter) (int64, error)
	CreateFunc        func(ctx context.Context, nft *entities.NFT) error
	UpdateOwnerFunc   func(ctx context.Context, tokenID int64, owner string) error
	AppendHistoryFunc func(ctx context.Context, entry *entities.TransferHistoryEntry) error
	GetHistoryFunc    func(ctx context.Context, tokenID int64) ([]entities.TransferHistoryEntry, error)

	// Call tracking
	Calls []MockCall
}

func NewMockNFTRepository() *MockNFTRepository {
	return &MockNFTRepository{
		nfts:  make(map[int64]*entities.NFT),
		Calls: make([]MockCall, 0),
	}
}

// AddNFTs seeds the mock with ownership records
func (m *MockNFTRepository) AddNFTs(nfts ...*entities.NFT) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range nfts {
		copied := *n
		m.nfts[n.TokenID] = &copied
	}
}

func (m *MockNFTRepository) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

func (m *MockNFTRepository) GetByTokenID(ctx context.Context, tokenID int64) (*entities.NFT, error) {
	m.record("GetByTokenID", tokenID)

	if m.GetByTokenIDFunc != nil {
		return m.GetByTokenIDFunc(ctx, tokenID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	nft, ok := m.nfts[tokenID]
	if !ok {
		return nil, nil
	}
	copied := *nft
	return &copied, nil
}

func (m *MockNFTRepository) GetByFilter(ctx context.Context, filter entities.NFTFilter) ([]entities.NFT, error) {
	m.record("GetByFilter", filter)

	if m.GetByFilterFunc != nil {
		return m.GetByFilterFunc(ctx, filter)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.NFT, 0)
	for _, n := range m.nfts {
		if filter.Owner != nil && n.Owner != *filter.Owner {
			continue
		}
		result = append(result, *n)
	}

	start := filter.Offset
	if start > len(result) {
		return []entities.NFT{}, nil
	}
	end := start + filter.Limit
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (m *MockNFTRepository) GetCount(ctx context.Context, filter entities.NFTFilter) (int64, error) {
	m.record("GetCount", filter)

	if m.GetCountFunc != nil {
		return m.GetCountFunc(ctx, filter)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, n := range m.nfts {
		if filter.Owner != nil && n.Owner != *filter.Owner {
			continue
		}
		count++
	}
	return count, nil
}

func (m *MockNFTRepository) Create(ctx context.Context, nft *entities.NFT) error {
	m.record("Create", nft)

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, nft)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nfts[nft.TokenID]; ok {
		return fmt.Errorf("nft %d already exists", nft.TokenID)
	}
	copied := *nft
	m.nfts[nft.TokenID] = &copied
	return nil
}

func (m *MockNFTRepository) UpdateOwner(ctx context.Context, tokenID int64, owner string) error {
	m.record("UpdateOwner", tokenID, owner)

	if m.UpdateOwnerFunc != nil {
		return m.UpdateOwnerFunc(ctx, tokenID, owner)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	nft, ok := m.nfts[tokenID]
	if !ok {
		return fmt.Errorf("nft %d not found", tokenID)
	}
	nft.Owner = owner
	return nil
}

func (m *MockNFTRepository) AppendHistory(ctx context.Context, entry *entities.TransferHistoryEntry) error {
	m.record("AppendHistory", entry)

	if m.AppendHistoryFunc != nil {
		return m.AppendHistoryFunc(ctx, entry)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Mirror the (token_id, tx_hash) unique constraint: duplicates are no-ops
	for _, e := range m.history {
		if e.TokenID == entry.TokenID && e.TxHash == entry.TxHash {
			return nil
		}
	}
	copied := *entry
	copied.ID = int64(len(m.history) + 1)
	m.history = append(m.history, copied)
	return nil
}

func (m *MockNFTRepository) GetHistory(ctx context.Context, tokenID int64) ([]entities.TransferHistoryEntry, error) {
	m.record("GetHistory", tokenID)

	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, tokenID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.TransferHistoryEntry, 0)
	for _, e := range m.history {
		if e.TokenID == tokenID {
			result = append(result, e)
		}
	}
	return result, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*entities.Transaction

	// Function hooks for custom behavior
	InsertFunc         func(ctx context.Context, tx *entities.Transaction) (bool, error)
	GetByHashFunc      func(ctx context.Context, txHash string) (*entities.Transaction, error)
	GetByFilterFunc    func(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error)
	GetCountFunc       func(ctx context.Context, filter entities.TransactionFilter) (int64, error)
	MaxBlockNumberFunc func(ctx context.Context) (int64, error)

	// Call tracking
	Calls []MockCall
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*entities.Transaction),
		Calls:        make([]MockCall, 0),
	}
}

// AddTransactions seeds the mock with ledger entries
func (m *MockTransactionRepository) AddTransactions(txs ...*entities.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range txs {
		copied := *tx
		m.transactions[tx.TxHash] = &copied
	}
}

// Count returns the number of stored ledger entries
func (m *MockTransactionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

func (m *MockTransactionRepository) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

// Insert mirrors the unique tx_hash constraint: a duplicate insert is a
// successful no-op, not an error
func (m *MockTransactionRepository) Insert(ctx context.Context, tx *entities.Transaction) (bool, error) {
	m.record("Insert", tx)

	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[tx.TxHash]; ok {
		return false, nil
	}
	copied := *tx
	m.transactions[tx.TxHash] = &copied
	return true, nil
}

func (m *MockTransactionRepository) GetByHash(ctx context.Context, txHash string) (*entities.Transaction, error) {
	m.record("GetByHash", txHash)

	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(ctx, txHash)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[txHash]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (m *MockTransactionRepository) GetByFilter(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error) {
	m.record("GetByFilter", filter)

	if m.GetByFilterFunc != nil {
		return m.GetByFilterFunc(ctx, filter)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.Transaction, 0)
	for _, tx := range m.transactions {
		if filter.Type != nil && tx.Type != *filter.Type {
			continue
		}
		if filter.Address != nil && tx.FromAddress != *filter.Address && tx.ToAddress != *filter.Address {
			continue
		}
		if filter.TokenID != nil && tx.TokenID != *filter.TokenID {
			continue
		}
		if filter.FromBlock != nil && tx.BlockNumber < *filter.FromBlock {
			continue
		}
		if filter.ToBlock != nil && tx.BlockNumber > *filter.ToBlock {
			continue
		}
		result = append(result, *tx)
	}

	start := filter.Offset
	if start > len(result) {
		return []entities.Transaction{}, nil
	}
	end := start + filter.Limit
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (m *MockTransactionRepository) GetCount(ctx context.Context, filter entities.TransactionFilter) (int64, error) {
	m.record("GetCount", filter)

	if m.GetCountFunc != nil {
		return m.GetCountFunc(ctx, filter)
	}

	all, err := m.GetByFilter(ctx, entities.TransactionFilter{
		Type:      filter.Type,
		Address:   filter.Address,
		TokenID:   filter.TokenID,
		FromBlock: filter.FromBlock,
		ToBlock:   filter.ToBlock,
		Limit:     1000000,
		Offset:    0,
	})
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (m *MockTransactionRepository) MaxBlockNumber(ctx context.Context) (int64, error) {
	m.record("MaxBlockNumber")

	if m.MaxBlockNumberFunc != nil {
		return m.MaxBlockNumberFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var max int64
	for _, tx := range m.transactions {
		if tx.BlockNumber > max {
			max = tx.BlockNumber
		}
	}
	return max, nil
}

// MockPropertyRepository is a mock implementation of PropertyRepository
type MockPropertyRepository struct {
	mu         sync.RWMutex
	properties map[int64]*entities.Property // keyed by token id

	// Function hooks for custom behavior
	GetByTokenIDFunc func(ctx context.Context, tokenID int64) (*entities.Property, error)
	UpdateOwnerFunc  func(ctx context.Context, propertyID int64, owner string) error

	// Call tracking
	Calls []MockCall
}

func NewMockPropertyRepository() *MockPropertyRepository {
	return &MockPropertyRepository{
		properties: make(map[int64]*entities.Property),
		Calls:      make([]MockCall, 0),
	}
}

// LinkProperty seeds the mock with a property linked to a token
func (m *MockPropertyRepository) LinkProperty(propertyID, tokenID int64, owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	linked := tokenID
	m.properties[tokenID] = &entities.Property{
		ID:           propertyID,
		TokenID:      &linked,
		OwnerAddress: owner,
	}
}

// OwnerOf returns the stored owner of the property linked to a token
func (m *MockPropertyRepository) OwnerOf(tokenID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.properties[tokenID]; ok {
		return p.OwnerAddress
	}
	return ""
}

func (m *MockPropertyRepository) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

func (m *MockPropertyRepository) GetByTokenID(ctx context.Context, tokenID int64) (*entities.Property, error) {
	m.record("GetByTokenID", tokenID)

	if m.GetByTokenIDFunc != nil {
		return m.GetByTokenIDFunc(ctx, tokenID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.properties[tokenID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *MockPropertyRepository) UpdateOwner(ctx context.Context, propertyID int64, owner string) error {
	m.record("UpdateOwner", propertyID, owner)

	if m.UpdateOwnerFunc != nil {
		return m.UpdateOwnerFunc(ctx, propertyID, owner)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.properties {
		if p.ID == propertyID {
			p.OwnerAddress = owner
			return nil
		}
	}
	return nil
}

// MockChainReader is a mock implementation of the services.ChainReader interface
type MockChainReader struct {
	mu sync.Mutex

	// Function hooks for custom behavior
	GetLatestBlockNumberFunc  func(ctx context.Context) (uint64, error)
	GetTransferLogsFunc       func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)
	GetTransactionByHashFunc  func(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error)
	GetTransactionReceiptFunc func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// Concurrency tracking for the overlap guard
	getLogsActive        int
	GetLogsCalls         int
	MaxConcurrentGetLogs int

	// Call tracking
	Calls []MockCall
}

func NewMockChainReader() *MockChainReader {
	return &MockChainReader{
		Calls: make([]MockCall, 0),
	}
}

func (m *MockChainReader) record(method string, args ...interface{}) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

func (m *MockChainReader) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	m.record("GetLatestBlockNumber")

	if m.GetLatestBlockNumberFunc != nil {
		return m.GetLatestBlockNumberFunc(ctx)
	}
	return 0, nil
}

func (m *MockChainReader) GetTransferLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetTransferLogs", Args: []interface{}{fromBlock, toBlock}})
	m.GetLogsCalls++
	m.getLogsActive++
	if m.getLogsActive > m.MaxConcurrentGetLogs {
		m.MaxConcurrentGetLogs = m.getLogsActive
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.getLogsActive--
		m.mu.Unlock()
	}()

	if m.GetTransferLogsFunc != nil {
		return m.GetTransferLogsFunc(ctx, fromBlock, toBlock)
	}
	return []types.Log{}, nil
}

func (m *MockChainReader) GetTransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	m.record("GetTransactionByHash", txHash)

	if m.GetTransactionByHashFunc != nil {
		return m.GetTransactionByHashFunc(ctx, txHash)
	}
	return types.NewTx(&types.LegacyTx{}), false, nil
}

func (m *MockChainReader) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	m.record("GetTransactionReceipt", txHash)

	if m.GetTransactionReceiptFunc != nil {
		return m.GetTransactionReceiptFunc(ctx, txHash)
	}
	return &types.Receipt{
		Status:  types.ReceiptStatusSuccessful,
		GasUsed: 21000,
	}, nil
}

// MockHealthChecker is a mock implementation of the handlers.HealthChecker interface
type MockHealthChecker struct {
	healthy bool
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	return &MockHealthChecker{healthy: healthy}
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	if !m.healthy {
		return fmt.Errorf("health check failed")
	}
	return nil
}

// MockTokenURISource is a mock implementation of the services.TokenURISource interface
type MockTokenURISource struct {
	mu sync.Mutex

	// Function hook for custom behavior
	TokenURIFunc func(ctx context.Context, tokenID int64) (string, error)

	// Call tracking
	Calls []MockCall
}

func NewMockTokenURISource() *MockTokenURISource {
	return &MockTokenURISource{
		Calls: make([]MockCall, 0),
	}
}

func (m *MockTokenURISource) TokenURI(ctx context.Context, tokenID int64) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "TokenURI", Args: []interface{}{tokenID}})
	m.mu.Unlock()

	if m.TokenURIFunc != nil {
		return m.TokenURIFunc(ctx, tokenID)
	}
	return fmt.Sprintf("ipfs://property-metadata/%d", tokenID), nil
}
