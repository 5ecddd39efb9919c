package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/domain/repositories"
	"github.com/datjpro/viepropchain-indexer/internal/infrastructure/ethereum"
)

// TransferProcessor turns raw Transfer logs into ownership and ledger writes
type TransferProcessor struct {
	chain           ChainReader
	sync            *SyncService
	transactionRepo repositories.TransactionRepository
	logger          *zap.Logger
}

// NewTransferProcessor creates a new event processor
func NewTransferProcessor(
	chain ChainReader,
	sync *SyncService,
	transactionRepo repositories.TransactionRepository,
	logger *zap.Logger,
) *TransferProcessor {
	return &TransferProcessor{
		chain:           chain,
		sync:            sync,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// ProcessLogs processes Transfer logs strictly in the order the node returned
// them; history append order depends on it. A failed event is logged and
// skipped, and processing continues with the next event.
func (p *TransferProcessor) ProcessLogs(ctx context.Context, logs []types.Log) (processed, failed int) {
	for _, log := range logs {
		if err := p.processLog(ctx, log); err != nil {
			p.logger.Error("Failed to process Transfer event",
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Uint64("block_number", log.BlockNumber),
				zap.Error(err),
			)
			eventSyncFailuresTotal.Inc()
			failed++
			continue
		}
		processed++
	}

	return processed, failed
}

// processLog decodes, classifies and synchronizes a single Transfer event
func (p *TransferProcessor) processLog(ctx context.Context, log types.Log) error {
	event, err := ethereum.ParseTransferEvent(log)
	if err != nil {
		return fmt.Errorf("failed to decode log: %w", err)
	}

	txHash := common.HexToHash(event.TxHash)

	// The transaction and its receipt are independent lookups
	var receipt *types.Receipt
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, _, err := p.chain.GetTransactionByHash(gCtx, txHash)
		return err
	})
	g.Go(func() error {
		var err error
		receipt, err = p.chain.GetTransactionReceipt(gCtx, txHash)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to resolve transaction %s: %w", event.TxHash, err)
	}

	if _, err := p.sync.SyncTransfer(ctx, SyncRequest{
		TokenID:     event.TokenID,
		FromAddress: event.FromAddress,
		ToAddress:   event.ToAddress,
		TxHash:      event.TxHash,
		BlockNumber: event.BlockNumber,
		IsMint:      event.IsMint(),
	}); err != nil {
		return fmt.Errorf("ownership sync failed: %w", err)
	}

	status := entities.TxStatusSuccess
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = entities.TxStatusFailed
	}

	inserted, err := p.transactionRepo.Insert(ctx, &entities.Transaction{
		TxHash:      event.TxHash,
		Type:        event.Type(),
		FromAddress: event.FromAddress,
		ToAddress:   event.ToAddress,
		TokenID:     event.TokenID,
		BlockNumber: event.BlockNumber,
		GasUsed:     int64(receipt.GasUsed),
		Status:      status,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	if !inserted {
		p.logger.Debug("Transaction already recorded",
			zap.String("tx_hash", event.TxHash),
		)
	}

	eventsProcessedTotal.WithLabelValues(string(event.Type())).Inc()

	p.logger.Debug("Processed Transfer event",
		zap.Int64("token_id", event.TokenID),
		zap.String("type", string(event.Type())),
		zap.String("from", event.FromAddress),
		zap.String("to", event.ToAddress),
		zap.Int64("block_number", event.BlockNumber),
	)

	return nil
}
