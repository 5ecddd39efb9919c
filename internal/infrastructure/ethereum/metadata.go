package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// tokenURI(uint256) -> 0xc87b56dd
var tokenURISig = common.FromHex("0xc87b56dd")

// TokenURIFetcher resolves a token's metadata URI via eth_call
type TokenURIFetcher struct {
	client *Client
	logger *zap.Logger
}

// NewTokenURIFetcher creates a new token URI fetcher
func NewTokenURIFetcher(client *Client, logger *zap.Logger) *TokenURIFetcher {
	return &TokenURIFetcher{
		client: client,
		logger: logger,
	}
}

// TokenURI fetches the metadata URI for a token from the bound contract.
// There is no fallback: an ownership record cannot be created without its
// metadata pointer, so decode failures are returned to the caller.
func (f *TokenURIFetcher) TokenURI(ctx context.Context, tokenID int64) (string, error) {
	data := make([]byte, 0, 36)
	data = append(data, tokenURISig...)
	data = append(data, common.LeftPadBytes(big.NewInt(tokenID).Bytes(), 32)...)

	result, err := f.client.CallContract(ctx, f.client.ContractAddress(), data)
	if err != nil {
		return "", fmt.Errorf("tokenURI call failed for token %d: %w", tokenID, err)
	}

	uri, err := decodeString(result)
	if err != nil {
		return "", fmt.Errorf("failed to decode tokenURI for token %d: %w", tokenID, err)
	}

	return uri, nil
}

// decodeString decodes an ABI-encoded string return value:
// offset (32 bytes) + length (32 bytes) + data (padded to 32 bytes)
func decodeString(data []byte) (string, error) {
	if len(data) < 64 {
		return "", fmt.Errorf("data too short: %d bytes", len(data))
	}

	offset := new(big.Int).SetBytes(data[:32])
	if offset.Uint64() != 32 {
		return "", fmt.Errorf("unexpected string offset: %s", offset.String())
	}

	length := new(big.Int).SetBytes(data[32:64])
	strLen := int(length.Uint64())

	if strLen == 0 {
		return "", nil
	}

	if len(data) < 64+strLen {
		return "", fmt.Errorf("string data truncated: want %d bytes, have %d", strLen, len(data)-64)
	}

	return strings.TrimRight(string(data[64:64+strLen]), "\x00"), nil
}
