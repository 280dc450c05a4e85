package parser

import (
	"fmt"
	"regexp"
	"strings"

	"keystore-swap/pkg/types"
)

// <amount> <sell_asset> to <buy_asset>, asset identifiers kept verbatim since
// contract addresses in them are case sensitive
var swapPattern = regexp.MustCompile(`(?i)^(\S+)\s+(\S+)\s+to\s+(\S+)$`)

// ParseSwapCommand parses a swap command
// Examples:
//   - "swap 1 BASE.ETH to THOR.RUNE"
//   - "0.5 ETH to RUNE"
//   - "100 BASE.USDC-0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913 to THOR.RUNE"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.Join(strings.Fields(command), " ")

	if len(command) >= 5 && strings.EqualFold(command[:5], "swap ") {
		command = command[5:]
	}

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <asset> to <asset>' (e.g., 'swap 1 BASE.ETH to THOR.RUNE')")
	}

	return &types.SwapRequest{
		Amount:    matches[1],
		SellAsset: NormalizeAssetIdentifier(matches[2]),
		BuyAsset:  NormalizeAssetIdentifier(matches[3]),
	}, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.SellAsset == "" {
		return fmt.Errorf("sell asset is required")
	}
	if req.BuyAsset == "" {
		return fmt.Errorf("buy asset is required")
	}
	return nil
}

// NormalizeAssetIdentifier expands bare gas tickers into full asset identifiers.
// Identifiers that already name a chain are returned unchanged.
func NormalizeAssetIdentifier(asset string) string {
	asset = strings.TrimSpace(asset)
	if strings.Contains(asset, ".") {
		return asset
	}

	aliases := map[string]string{
		"ETH":  "BASE.ETH",
		"RUNE": "THOR.RUNE",
		"USDC": "BASE.USDC-0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	}

	if normalized, exists := aliases[strings.ToUpper(asset)]; exists {
		return normalized
	}

	return asset
}
