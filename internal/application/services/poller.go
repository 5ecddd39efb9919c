package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/config"
	"github.com/datjpro/viepropchain-indexer/internal/domain/repositories"
)

// Poller drives the indexing pipeline on a fixed interval. It is constructed
// once at process start; the checkpoint and in-flight guard live on this
// single long-lived instance, never in package state.
type Poller struct {
	chain           ChainReader
	processor       *TransferProcessor
	transactionRepo repositories.TransactionRepository
	config          config.IndexerConfig
	logger          *zap.Logger

	// lastProcessedBlock is only written by Start and the poll goroutine;
	// reads from other goroutines go through the atomic.
	lastProcessedBlock atomic.Uint64
	inFlight           atomic.Bool
	stopCh             chan struct{}
	wg                 sync.WaitGroup
}

// NewPoller creates a new poll scheduler
func NewPoller(
	chain ChainReader,
	processor *TransferProcessor,
	transactionRepo repositories.TransactionRepository,
	cfg config.IndexerConfig,
	logger *zap.Logger,
) *Poller {
	return &Poller{
		chain:           chain,
		processor:       processor,
		transactionRepo: transactionRepo,
		config:          cfg,
		logger:          logger,
		stopCh:          make(chan struct{}),
	}
}

// Start recovers the checkpoint and begins the polling loop.
// The checkpoint is derived from the transaction ledger; with an empty ledger
// the indexer starts from the current chain head and skips all history.
func (p *Poller) Start(ctx context.Context) error {
	maxBlock, err := p.transactionRepo.MaxBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover checkpoint from ledger: %w", err)
	}

	if maxBlock > 0 {
		p.lastProcessedBlock.Store(uint64(maxBlock))
	} else {
		head, err := p.chain.GetLatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to get chain head for initial checkpoint: %w", err)
		}
		p.lastProcessedBlock.Store(head)
	}

	p.logger.Info("Starting poller",
		zap.Uint64("last_processed_block", p.lastProcessedBlock.Load()),
		zap.Duration("poll_interval", p.config.PollInterval),
	)

	p.wg.Add(1)
	go p.run(ctx)

	return nil
}

// Stop cancels the timer and waits for an in-flight cycle to return
func (p *Poller) Stop() {
	p.logger.Info("Stopping poller")
	close(p.stopCh)
	p.wg.Wait()
}

// LastProcessedBlock returns the current checkpoint
func (p *Poller) LastProcessedBlock() uint64 {
	return p.lastProcessedBlock.Load()
}

// run drives poll cycles until stopped
func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	p.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll executes one cycle: read head, fetch logs for the unseen range, process
// them in order, advance the checkpoint. A tick arriving while a cycle is
// still running is dropped, not queued. Transport errors abort the cycle with
// the checkpoint unchanged, so the next tick retries the same range; per-event
// failures do NOT hold the checkpoint back.
func (p *Poller) Poll(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("Previous poll cycle still running, skipping tick")
		return
	}
	defer p.inFlight.Store(false)

	head, err := p.chain.GetLatestBlockNumber(ctx)
	if err != nil {
		p.logger.Error("Failed to get chain head", zap.Error(err))
		pollCycleErrorsTotal.Inc()
		return
	}

	last := p.lastProcessedBlock.Load()
	if head <= last {
		p.logger.Debug("No new blocks",
			zap.Uint64("head", head),
			zap.Uint64("last_processed_block", last),
		)
		return
	}

	fromBlock := last + 1
	logs, err := p.chain.GetTransferLogs(ctx, fromBlock, head)
	if err != nil {
		p.logger.Error("Failed to fetch Transfer logs",
			zap.Uint64("from_block", fromBlock),
			zap.Uint64("to_block", head),
			zap.Error(err),
		)
		pollCycleErrorsTotal.Inc()
		return
	}

	processed, failed := 0, 0
	if len(logs) > 0 {
		processed, failed = p.processor.ProcessLogs(ctx, logs)
	}

	p.lastProcessedBlock.Store(head)
	lastProcessedBlockGauge.Set(float64(head))
	pollCyclesTotal.Inc()

	p.logger.Info("Poll cycle complete",
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", head),
		zap.Int("events", len(logs)),
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)
}
