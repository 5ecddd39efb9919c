package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/domain/repositories"
	"github.com/datjpro/viepropchain-indexer/internal/infrastructure/cache"
)

// NFTService provides business logic for ownership queries
type NFTService struct {
	nftRepo repositories.NFTRepository
	cache   *cache.RedisCache
	logger  *zap.Logger
}

// NewNFTService creates a new NFT query service
func NewNFTService(
	nftRepo repositories.NFTRepository,
	cache *cache.RedisCache,
	logger *zap.Logger,
) *NFTService {
	return &NFTService{
		nftRepo: nftRepo,
		cache:   cache,
		logger:  logger,
	}
}

// NFTDTO is the API representation of an ownership record
type NFTDTO struct {
	TokenID   int64  `json:"token_id"`
	Owner     string `json:"owner"`
	TokenURI  string `json:"token_uri"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// HistoryEntryDTO is the API representation of one ownership hop
type HistoryEntryDTO struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	TxHash      string `json:"tx_hash"`
	BlockNumber int64  `json:"block_number"`
	Timestamp   string `json:"timestamp"`
}

// NFTListResponse is the API response for ownership record listings
type NFTListResponse struct {
	NFTs    []NFTDTO `json:"nfts"`
	Total   int64    `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	HasMore bool     `json:"has_more"`
}

// NFTHistoryResponse is the API response for a token's transfer history
type NFTHistoryResponse struct {
	TokenID int64             `json:"token_id"`
	History []HistoryEntryDTO `json:"history"`
}

// GetByTokenID retrieves a single ownership record, nil if unknown
func (s *NFTService) GetByTokenID(ctx context.Context, tokenID int64) (*NFTDTO, error) {
	cacheKey := fmt.Sprintf("nft:%d", tokenID)

	var cached NFTDTO
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	nft, err := s.nftRepo.GetByTokenID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	if nft == nil {
		return nil, nil
	}

	dto := toNFTDTO(nft)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, dto); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return &dto, nil
}

// GetNFTs retrieves ownership records based on filter
func (s *NFTService) GetNFTs(ctx context.Context, filter entities.NFTFilter) (*NFTListResponse, error) {
	cacheKey := s.generateCacheKey(filter)

	var cached NFTListResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	nfts, err := s.nftRepo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get nfts: %w", err)
	}

	total, err := s.nftRepo.GetCount(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft count: %w", err)
	}

	dtos := make([]NFTDTO, len(nfts))
	for i, n := range nfts {
		dtos[i] = toNFTDTO(&n)
	}

	response := &NFTListResponse{
		NFTs:    dtos,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		HasMore: int64(filter.Offset+len(nfts)) < total,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return response, nil
}

// GetByOwner retrieves ownership records held by a specific address
func (s *NFTService) GetByOwner(ctx context.Context, owner string, limit, offset int) (*NFTListResponse, error) {
	owner = strings.ToLower(owner)
	filter := entities.NFTFilter{
		Owner:  &owner,
		Limit:  limit,
		Offset: offset,
	}
	return s.GetNFTs(ctx, filter)
}

// GetHistory retrieves the full transfer history for a token, nil if the
// token has no ownership record
func (s *NFTService) GetHistory(ctx context.Context, tokenID int64) (*NFTHistoryResponse, error) {
	nft, err := s.nftRepo.GetByTokenID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	if nft == nil {
		return nil, nil
	}

	entries, err := s.nftRepo.GetHistory(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer history: %w", err)
	}

	history := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		history[i] = HistoryEntryDTO{
			FromAddress: e.FromAddress,
			ToAddress:   e.ToAddress,
			TxHash:      e.TxHash,
			BlockNumber: e.BlockNumber,
			Timestamp:   e.Timestamp.Format("2006-01-02T15:04:05Z"),
		}
	}

	return &NFTHistoryResponse{
		TokenID: tokenID,
		History: history,
	}, nil
}

// generateCacheKey generates a unique cache key for the filter
func (s *NFTService) generateCacheKey(filter entities.NFTFilter) string {
	var parts []string

	if filter.Owner != nil {
		parts = append(parts, "owner:"+*filter.Owner)
	}

	parts = append(parts, fmt.Sprintf("l:%d:o:%d", filter.Limit, filter.Offset))

	return "nfts:" + strings.Join(parts, "|")
}

func toNFTDTO(nft *entities.NFT) NFTDTO {
	return NFTDTO{
		TokenID:   nft.TokenID,
		Owner:     nft.Owner,
		TokenURI:  nft.TokenURI,
		CreatedAt: nft.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: nft.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
