package service

import (
	"fmt"

	"github.com/coin-ledger/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates an EVM address and returns its EIP-55 checksum form
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", &types.ServiceError{
			Code:    types.CodeInvalidAddressFormat,
			Message: fmt.Sprintf("invalid address format: %s (must be 0x followed by 40 hexadecimal characters)", address),
			Details: map[string]interface{}{
				"address": address,
				"format":  "0x[a-fA-F0-9]{40}",
			},
		}
	}
	return common.HexToAddress(address).Hex(), nil
}

// NormalizeAddresses normalizes every address and drops duplicates, keeping order
func NormalizeAddresses(addresses []string) ([]string, error) {
	out := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for i, addr := range addresses {
		norm, err := NormalizeAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address at index %d: %w", i, err)
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out, nil
}
