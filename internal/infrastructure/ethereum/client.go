package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/config"
)

// Client wraps the Ethereum client with retry logic and utilities.
// It is the indexer's read-only view of the chain.
type Client struct {
	client   *ethclient.Client
	config   config.EthereumConfig
	contract common.Address
	logger   *zap.Logger
	chainID  *big.Int
}

// NewClient creates a new Ethereum client bound to the property NFT contract
func NewClient(cfg config.EthereumConfig, contractAddress string, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum node: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	if chainID.Int64() != cfg.ChainID {
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", cfg.ChainID, chainID.Int64())
	}

	logger.Info("Connected to Ethereum node",
		zap.String("rpc_url", cfg.RPCURL),
		zap.Int64("chain_id", chainID.Int64()),
		zap.String("contract", contractAddress),
	)

	return &Client{
		client:   client,
		config:   cfg,
		contract: common.HexToAddress(contractAddress),
		logger:   logger,
		chainID:  chainID,
	}, nil
}

// Close closes the Ethereum client connection
func (c *Client) Close() {
	c.client.Close()
}

// GetLatestBlockNumber returns the latest block number
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	var blockNumber uint64
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		blockNumber, err = c.client.BlockNumber(ctx)
		if err == nil {
			return blockNumber, nil
		}

		c.logger.Warn("Failed to get latest block number, retrying",
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return 0, fmt.Errorf("failed to get latest block number after %d retries: %w", c.config.MaxRetries, err)
}

// GetTransferLogs retrieves Transfer logs emitted by the bound contract within
// the given block range, in the node's ascending block/log-index order
func (c *Client) GetTransferLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	query := c.buildTransferFilterQuery(
		new(big.Int).SetUint64(fromBlock),
		new(big.Int).SetUint64(toBlock),
	)

	var logs []types.Log
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		logs, err = c.client.FilterLogs(ctx, query)
		if err == nil {
			return logs, nil
		}

		c.logger.Warn("Failed to get logs, retrying",
			zap.Uint64("from_block", fromBlock),
			zap.Uint64("to_block", toBlock),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return nil, fmt.Errorf("failed to get logs after %d retries: %w", c.config.MaxRetries, err)
}

// GetTransactionByHash returns the transaction for a given hash
func (c *Client) GetTransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	var tx *types.Transaction
	var pending bool
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		tx, pending, err = c.client.TransactionByHash(ctx, txHash)
		if err == nil {
			return tx, pending, nil
		}

		c.logger.Warn("Failed to get transaction, retrying",
			zap.String("tx_hash", txHash.Hex()),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return nil, false, fmt.Errorf("failed to get transaction %s after %d retries: %w", txHash.Hex(), c.config.MaxRetries, err)
}

// GetTransactionReceipt returns the receipt for a given transaction hash
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		receipt, err = c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		c.logger.Warn("Failed to get receipt, retrying",
			zap.String("tx_hash", txHash.Hex()),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return nil, fmt.Errorf("failed to get receipt %s after %d retries: %w", txHash.Hex(), c.config.MaxRetries, err)
}

// CallContract performs a read-only eth_call against the given contract
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}

	var result []byte
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		result, err = c.client.CallContract(ctx, msg, nil)
		if err == nil {
			return result, nil
		}

		c.logger.Warn("Contract call failed, retrying",
			zap.String("to", to.Hex()),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return nil, fmt.Errorf("contract call to %s failed after %d retries: %w", to.Hex(), c.config.MaxRetries, err)
}

// buildTransferFilterQuery builds a filter query for ERC-721 Transfer events.
// The signature hash is shared with ERC-20; the indexed tokenId gives the
// event its fourth topic, which the parser enforces.
func (c *Client) buildTransferFilterQuery(fromBlock, toBlock *big.Int) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: []common.Address{c.contract},
		Topics: [][]common.Hash{
			{TransferEventSignature},
		},
	}
}

// ContractAddress returns the bound NFT contract address
func (c *Client) ContractAddress() common.Address {
	return c.contract
}

// ChainID returns the chain ID
func (c *Client) ChainID() *big.Int {
	return c.chainID
}
