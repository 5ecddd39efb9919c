package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
)

// TransferEventSignature is the keccak256 hash of Transfer(address,address,uint256)
var TransferEventSignature = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// TransferEvent is a decoded ERC-721 Transfer log
type TransferEvent struct {
	TxHash      string
	LogIndex    int
	BlockNumber int64
	FromAddress string
	ToAddress   string
	TokenID     int64
}

// IsMint reports whether this event creates a new token
func (e *TransferEvent) IsMint() bool {
	return e.FromAddress == entities.ZeroAddress
}

// Type returns the ledger classification for this event
func (e *TransferEvent) Type() entities.TxType {
	if e.IsMint() {
		return entities.TxTypeMint
	}
	return entities.TxTypeTransfer
}

// ParseTransferEvent parses a raw log into a TransferEvent
func ParseTransferEvent(log types.Log) (*TransferEvent, error) {
	// ERC-721 Transfer has three indexed parameters: from, to, tokenId.
	// Three topics would be an ERC-20 style Transfer with the value in data.
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("invalid number of topics: expected 4, got %d", len(log.Topics))
	}

	if log.Topics[0] != TransferEventSignature {
		return nil, fmt.Errorf("not a Transfer event")
	}

	// Topics[1] = from address (padded to 32 bytes)
	// Topics[2] = to address (padded to 32 bytes)
	// Topics[3] = tokenId (uint256)
	fromAddress := common.BytesToAddress(log.Topics[1].Bytes())
	toAddress := common.BytesToAddress(log.Topics[2].Bytes())

	tokenID := new(big.Int).SetBytes(log.Topics[3].Bytes())
	if !tokenID.IsInt64() {
		return nil, fmt.Errorf("token id %s out of range", tokenID.String())
	}

	return &TransferEvent{
		TxHash:      log.TxHash.Hex(),
		LogIndex:    int(log.Index),
		BlockNumber: int64(log.BlockNumber),
		FromAddress: strings.ToLower(fromAddress.Hex()),
		ToAddress:   strings.ToLower(toAddress.Hex()),
		TokenID:     tokenID.Int64(),
	}, nil
}

// IsTransferEvent checks if a log is an ERC-721 Transfer event
func IsTransferEvent(log types.Log) bool {
	return len(log.Topics) == 4 && log.Topics[0] == TransferEventSignature
}
