package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/domain/repositories"
)

// SyncRequest describes one Transfer event for the ownership synchronizer
type SyncRequest struct {
	TokenID     int64
	FromAddress string
	ToAddress   string
	TxHash      string
	BlockNumber int64
	IsMint      bool
}

// SyncService maintains the canonical per-token ownership records
type SyncService struct {
	nftRepo      repositories.NFTRepository
	propertyRepo repositories.PropertyRepository
	tokenURI     TokenURISource
	logger       *zap.Logger
}

// NewSyncService creates a new ownership synchronizer
func NewSyncService(
	nftRepo repositories.NFTRepository,
	propertyRepo repositories.PropertyRepository,
	tokenURI TokenURISource,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		nftRepo:      nftRepo,
		propertyRepo: propertyRepo,
		tokenURI:     tokenURI,
		logger:       logger,
	}
}

// SyncTransfer upserts the ownership record for one Transfer event.
// On first sighting the event must be a mint; the record is created with the
// token's metadata URI resolved from the chain, and a failed URI fetch fails
// the whole sync. Subsequent events overwrite the owner and append history.
func (s *SyncService) SyncTransfer(ctx context.Context, req SyncRequest) (*entities.NFT, error) {
	nft, err := s.nftRepo.GetByTokenID(ctx, req.TokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up nft %d: %w", req.TokenID, err)
	}

	if nft == nil {
		if !req.IsMint {
			return nil, fmt.Errorf("no ownership record for token %d and event is not a mint", req.TokenID)
		}

		uri, err := s.tokenURI.TokenURI(ctx, req.TokenID)
		if err != nil {
			return nil, fmt.Errorf("cannot create ownership record for token %d: %w", req.TokenID, err)
		}

		nft = &entities.NFT{
			TokenID:  req.TokenID,
			Owner:    req.ToAddress,
			TokenURI: uri,
		}
		if err := s.nftRepo.Create(ctx, nft); err != nil {
			return nil, fmt.Errorf("failed to create nft %d: %w", req.TokenID, err)
		}

		s.logger.Info("Created ownership record",
			zap.Int64("token_id", req.TokenID),
			zap.String("owner", req.ToAddress),
			zap.String("token_uri", uri),
		)
	} else {
		if err := s.nftRepo.UpdateOwner(ctx, req.TokenID, req.ToAddress); err != nil {
			return nil, fmt.Errorf("failed to update owner of nft %d: %w", req.TokenID, err)
		}
		nft.Owner = req.ToAddress
	}

	entry := &entities.TransferHistoryEntry{
		TokenID:     req.TokenID,
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
		TxHash:      req.TxHash,
		BlockNumber: req.BlockNumber,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.nftRepo.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append history for nft %d: %w", req.TokenID, err)
	}

	// Best effort: the property store converges on the next sync if this write
	// is lost. A token without a property linkage is the common case.
	s.propagateOwner(ctx, req.TokenID, req.ToAddress)

	return nft, nil
}

// propagateOwner overwrites the denormalized owner on any linked property record
func (s *SyncService) propagateOwner(ctx context.Context, tokenID int64, owner string) {
	property, err := s.propertyRepo.GetByTokenID(ctx, tokenID)
	if err != nil {
		s.logger.Warn("Failed to look up linked property",
			zap.Int64("token_id", tokenID),
			zap.Error(err),
		)
		return
	}

	if property == nil {
		return
	}

	if err := s.propertyRepo.UpdateOwner(ctx, property.ID, owner); err != nil {
		s.logger.Warn("Failed to propagate owner to property",
			zap.Int64("token_id", tokenID),
			zap.Int64("property_id", property.ID),
			zap.Error(err),
		)
	}
}
