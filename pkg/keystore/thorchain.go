package keystore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"keystore-swap/pkg/types"
)

// THORChain amounts are fixed at 1e8 units
const thorchainDecimals = 8

// THORNodeClient reads account balances from a THORNode REST endpoint
type THORNodeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTHORNodeClient creates a new THORNode client
func NewTHORNodeClient(baseURL string, timeout time.Duration) *THORNodeClient {
	return &THORNodeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type bankBalancesResponse struct {
	Balances []struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	} `json:"balances"`
}

// Balances returns every bank balance of address
func (c *THORNodeClient) Balances(ctx context.Context, address string) ([]types.Balance, error) {
	endpoint := c.baseURL + "/cosmos/bank/v1beta1/balances/" + address

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thornode returned status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result bankBalancesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	balances := make([]types.Balance, 0, len(result.Balances)+1)
	hasRune := false
	for _, b := range result.Balances {
		amount, ok := new(big.Int).SetString(b.Amount, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount %q for %s", b.Amount, b.Denom)
		}
		ticker := denomTicker(b.Denom)
		if ticker == "RUNE" {
			hasRune = true
		}
		balances = append(balances, types.Balance{
			Chain:  types.ChainTHORChain,
			Ticker: ticker,
			Amount: formatUnits(amount, thorchainDecimals),
		})
	}

	// An unfunded account has no bank entries
	if !hasRune {
		balances = append([]types.Balance{{Chain: types.ChainTHORChain, Ticker: "RUNE", Amount: "0"}}, balances...)
	}

	return balances, nil
}

// denomTicker maps a bank denom to a ticker: "rune" -> RUNE, "btc/btc" -> BTC/BTC
func denomTicker(denom string) string {
	return strings.ToUpper(strings.TrimSpace(denom))
}
