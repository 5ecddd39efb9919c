package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/domain/repositories"
	"github.com/datjpro/viepropchain-indexer/internal/infrastructure/cache"
)

// TransactionService provides business logic for ledger queries
type TransactionService struct {
	transactionRepo repositories.TransactionRepository
	cache           *cache.RedisCache
	logger          *zap.Logger
}

// NewTransactionService creates a new transaction query service
func NewTransactionService(
	transactionRepo repositories.TransactionRepository,
	cache *cache.RedisCache,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		cache:           cache,
		logger:          logger,
	}
}

// TransactionDTO is the API representation of a ledger entry
type TransactionDTO struct {
	TxHash      string `json:"tx_hash"`
	Type        string `json:"type"`
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	TokenID     int64  `json:"token_id"`
	BlockNumber int64  `json:"block_number"`
	GasUsed     int64  `json:"gas_used"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

// TransactionListResponse is the API response for ledger queries
type TransactionListResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	Total        int64            `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
	HasMore      bool             `json:"has_more"`
}

// GetTransactions retrieves ledger entries based on filter
func (s *TransactionService) GetTransactions(ctx context.Context, filter entities.TransactionFilter) (*TransactionListResponse, error) {
	cacheKey := s.generateCacheKey(filter)

	var cached TransactionListResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	txs, err := s.transactionRepo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	total, err := s.transactionRepo.GetCount(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction count: %w", err)
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(&tx)
	}

	response := &TransactionListResponse{
		Transactions: dtos,
		Total:        total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
		HasMore:      int64(filter.Offset+len(txs)) < total,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return response, nil
}

// GetByHash retrieves a single ledger entry, nil if unknown
func (s *TransactionService) GetByHash(ctx context.Context, txHash string) (*TransactionDTO, error) {
	txHash = strings.ToLower(txHash)

	tx, err := s.transactionRepo.GetByHash(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil {
		return nil, nil
	}

	dto := toTransactionDTO(tx)
	return &dto, nil
}

// generateCacheKey generates a unique cache key for the filter
func (s *TransactionService) generateCacheKey(filter entities.TransactionFilter) string {
	var parts []string

	if filter.Type != nil {
		parts = append(parts, "type:"+string(*filter.Type))
	}
	if filter.Address != nil {
		parts = append(parts, "addr:"+*filter.Address)
	}
	if filter.TokenID != nil {
		parts = append(parts, fmt.Sprintf("token:%d", *filter.TokenID))
	}
	if filter.FromBlock != nil {
		parts = append(parts, fmt.Sprintf("fb:%d", *filter.FromBlock))
	}
	if filter.ToBlock != nil {
		parts = append(parts, fmt.Sprintf("tb:%d", *filter.ToBlock))
	}

	parts = append(parts, fmt.Sprintf("l:%d:o:%d", filter.Limit, filter.Offset))

	key := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(key))
	return "transactions:" + hex.EncodeToString(hash[:8])
}

func toTransactionDTO(tx *entities.Transaction) TransactionDTO {
	return TransactionDTO{
		TxHash:      tx.TxHash,
		Type:        string(tx.Type),
		FromAddress: tx.FromAddress,
		ToAddress:   tx.ToAddress,
		TokenID:     tx.TokenID,
		BlockNumber: tx.BlockNumber,
		GasUsed:     tx.GasUsed,
		Status:      string(tx.Status),
		Timestamp:   tx.Timestamp.Format("2006-01-02T15:04:05Z"),
	}
}
