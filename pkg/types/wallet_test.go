package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetID(t *testing.T) {
	assert.Equal(t, "BASE.ETH", AssetID(ChainBase, "ETH", ""))
	assert.Equal(t, "BASE.USDC-0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		AssetID(ChainBase, "USDC", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"))
	assert.Equal(t, "THOR.RUNE", AssetID(ChainTHORChain, "RUNE", ""))
}

func TestAssetIDIgnoresAmount(t *testing.T) {
	a := Balance{Chain: ChainBase, Ticker: "USDC", Address: "0xabc", Amount: "1"}
	b := Balance{Chain: ChainBase, Ticker: "USDC", Address: "0xabc", Amount: "250.5"}

	assert.Equal(t, a.AssetID(), b.AssetID())
	assert.Equal(t, a.AssetID(), a.AssetID())
}

func TestWalletCloneDoesNotShareBalances(t *testing.T) {
	w := Wallet{Chain: ChainBase, Address: "0x1", Balance: []Balance{{Chain: ChainBase, Ticker: "ETH", Amount: "1"}}}
	c := w.Clone()
	c.Balance[0].Amount = "2"

	assert.Equal(t, "1", w.Balance[0].Amount)
}

func TestRouteFirstProvider(t *testing.T) {
	assert.Equal(t, "", Route{}.FirstProvider())
	assert.Equal(t, "THORCHAIN", Route{Providers: []string{"THORCHAIN", "UNISWAP_V3"}}.FirstProvider())
}
