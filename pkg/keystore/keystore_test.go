package keystore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystore-swap/pkg/types"
)

const (
	testMnemonic   = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testEVMAddress = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	usdcAddress    = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
)

type fakeBackend struct {
	chainID   *big.Int
	native    *big.Int
	tokens    map[common.Address]*big.Int
	nonce     uint64
	gasPrice  *big.Int
	estimate  uint64
	sendErr   error
	sent      []*ethtypes.Transaction
	estimates int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(8453),
		native:   big.NewInt(1_500_000_000_000_000_000),
		tokens:   map[common.Address]*big.Int{},
		nonce:    7,
		gasPrice: big.NewInt(1_000_000),
		estimate: 100_000,
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return f.chainID, nil }

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.native, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	selector := call.Data[:4]
	switch {
	case bytes.Equal(selector, parsedERC20.Methods["balanceOf"].ID):
		amount, ok := f.tokens[*call.To]
		if !ok {
			amount = new(big.Int)
		}
		return parsedERC20.Methods["balanceOf"].Outputs.Pack(amount)
	case bytes.Equal(selector, parsedERC20.Methods["decimals"].ID):
		return parsedERC20.Methods["decimals"].Outputs.Pack(uint8(6))
	case bytes.Equal(selector, parsedERC20.Methods["symbol"].ID):
		return parsedERC20.Methods["symbol"].Outputs.Pack("USDC")
	}
	return nil, errors.New("unknown method")
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) { return f.gasPrice, nil }

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	f.estimates++
	return f.estimate, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func connectedKeystore(t *testing.T, backend EVMBackend, thornode *THORNodeClient, opts ...Option) *Keystore {
	t.Helper()
	k := New(backend, thornode, opts...)
	require.NoError(t, k.Connect(context.Background(), []types.Chain{types.ChainBase, types.ChainTHORChain}, testMnemonic))
	return k
}

func TestConnectDerivesKnownEVMAddress(t *testing.T) {
	k := connectedKeystore(t, nil, nil)

	wallet, err := k.Wallet(types.ChainBase)
	require.NoError(t, err)
	assert.Equal(t, testEVMAddress, wallet.Address)
	assert.Equal(t, types.ChainBase, wallet.Chain)
	assert.Empty(t, wallet.Balance)
}

func TestConnectDerivesTHORChainAddress(t *testing.T) {
	k := connectedKeystore(t, nil, nil)

	wallet, err := k.Wallet(types.ChainTHORChain)
	require.NoError(t, err)

	hrp, data, err := bech32.Decode(wallet.Address)
	require.NoError(t, err)
	assert.Equal(t, "thor", hrp)
	program, err := bech32.ConvertBits(data, 5, 8, false)
	require.NoError(t, err)
	assert.Len(t, program, 20)

	again := connectedKeystore(t, nil, nil)
	other, err := again.Wallet(types.ChainTHORChain)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, other.Address)
}

func TestConnectRejectsInvalidMnemonic(t *testing.T) {
	k := New(nil, nil)

	err := k.Connect(context.Background(), []types.Chain{types.ChainBase}, "not a real mnemonic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mnemonic")

	_, err = k.Wallet(types.ChainBase)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectRejectsUnsupportedChain(t *testing.T) {
	k := New(nil, nil)

	err := k.Connect(context.Background(), []types.Chain{types.ChainBase, "SOL"}, testMnemonic)
	require.EqualError(t, err, "unsupported chain: SOL")

	_, err = k.Wallet(types.ChainBase)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestWalletWithBalanceEVM(t *testing.T) {
	backend := newFakeBackend()
	backend.tokens[common.HexToAddress(usdcAddress)] = big.NewInt(12_345_000)
	zero := "0x0000000000000000000000000000000000000001"
	k := connectedKeystore(t, backend, nil, WithTokens([]string{usdcAddress, zero, "not-an-address"}))

	wallet, err := k.WalletWithBalance(context.Background(), types.ChainBase)
	require.NoError(t, err)

	assert.Equal(t, []types.Balance{
		{Chain: types.ChainBase, Ticker: "ETH", Amount: "1.5"},
		{Chain: types.ChainBase, Ticker: "USDC", Address: usdcAddress, Amount: "12.345"},
	}, wallet.Balance)
	assert.Equal(t, "BASE.USDC-"+usdcAddress, wallet.Balance[1].AssetID())
}

func TestWalletWithBalanceTHORChain(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"balances":[{"denom":"rune","amount":"1250000000"},{"denom":"btc/btc","amount":"100"}]}`))
	}))
	defer srv.Close()

	k := connectedKeystore(t, nil, NewTHORNodeClient(srv.URL, time.Second))

	wallet, err := k.WalletWithBalance(context.Background(), types.ChainTHORChain)
	require.NoError(t, err)

	assert.Equal(t, "/cosmos/bank/v1beta1/balances/"+wallet.Address, gotPath)
	assert.Equal(t, []types.Balance{
		{Chain: types.ChainTHORChain, Ticker: "RUNE", Amount: "12.5"},
		{Chain: types.ChainTHORChain, Ticker: "BTC/BTC", Amount: "0.000001"},
	}, wallet.Balance)
}

func TestTHORNodeUnfundedAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balances":[]}`))
	}))
	defer srv.Close()

	balances, err := NewTHORNodeClient(srv.URL, time.Second).Balances(context.Background(), "thor1xyz")
	require.NoError(t, err)
	assert.Equal(t, []types.Balance{{Chain: types.ChainTHORChain, Ticker: "RUNE", Amount: "0"}}, balances)
}

func TestTHORNodeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "decoding bech32 failed", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewTHORNodeClient(srv.URL, time.Second).Balances(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 400")
	assert.Contains(t, err.Error(), "decoding bech32 failed")
}

func TestWalletWithBalanceRequiresConnection(t *testing.T) {
	k := New(newFakeBackend(), nil)

	_, err := k.WalletWithBalance(context.Background(), types.ChainBase)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func routeWithTx(t *testing.T, tx types.EVMTransaction) types.Route {
	t.Helper()
	raw, err := json.Marshal(tx)
	require.NoError(t, err)
	return types.Route{Providers: []string{"THORCHAIN"}, Tx: raw}
}

func TestSwapSignsAndBroadcasts(t *testing.T) {
	backend := newFakeBackend()
	k := connectedKeystore(t, backend, nil)
	router := "0xD37BbE5744D730a1d98d8DC97c42F0Ca46aD7146"

	hash, err := k.Swap(context.Background(), routeWithTx(t, types.EVMTransaction{
		From:  testEVMAddress,
		To:    router,
		Value: "0xde0b6b3a7640000",
		Data:  "0x1fece7b4",
	}))
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, tx.Hash().Hex(), hash)
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(120_000), tx.Gas())
	assert.Equal(t, big.NewInt(1_000_000_000_000_000_000), tx.Value())
	assert.Equal(t, backend.gasPrice, tx.GasPrice())
	assert.Equal(t, common.HexToAddress(router), *tx.To())
	assert.Equal(t, []byte{0x1f, 0xec, 0xe7, 0xb4}, tx.Data())
	assert.Equal(t, 1, backend.estimates)

	sender, err := ethtypes.Sender(ethtypes.NewEIP155Signer(backend.chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, testEVMAddress, sender.Hex())
}

func TestSwapUsesRouteGas(t *testing.T) {
	backend := newFakeBackend()
	k := connectedKeystore(t, backend, nil)

	_, err := k.Swap(context.Background(), routeWithTx(t, types.EVMTransaction{
		To:       "0xD37BbE5744D730a1d98d8DC97c42F0Ca46aD7146",
		Value:    "0",
		Gas:      "250000",
		GasPrice: "0x3b9aca00",
	}))
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	assert.Equal(t, uint64(250_000), backend.sent[0].Gas())
	assert.Equal(t, big.NewInt(1_000_000_000), backend.sent[0].GasPrice())
	assert.Zero(t, backend.estimates)
}

func TestSwapRejectsNonEVMRoute(t *testing.T) {
	backend := newFakeBackend()
	k := connectedKeystore(t, backend, nil)

	_, err := k.Swap(context.Background(), types.Route{Providers: []string{"THORCHAIN"}})
	assert.EqualError(t, err, "route carries no transaction")

	_, err = k.Swap(context.Background(), types.Route{Tx: json.RawMessage(`"cosmos-msg"`)})
	assert.ErrorContains(t, err, "not an EVM transaction")

	_, err = k.Swap(context.Background(), routeWithTx(t, types.EVMTransaction{To: "thor1abc"}))
	assert.ErrorContains(t, err, "invalid recipient")

	assert.Empty(t, backend.sent)
}

func TestSwapRejectsForeignSender(t *testing.T) {
	backend := newFakeBackend()
	k := connectedKeystore(t, backend, nil)

	_, err := k.Swap(context.Background(), routeWithTx(t, types.EVMTransaction{
		From: "0x0000000000000000000000000000000000000001",
		To:   "0xD37BbE5744D730a1d98d8DC97c42F0Ca46aD7146",
	}))
	assert.ErrorContains(t, err, "connected wallet is "+testEVMAddress)
	assert.Empty(t, backend.sent)
}

func TestSwapSurfacesBroadcastFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("insufficient funds for gas")
	k := connectedKeystore(t, backend, nil)

	_, err := k.Swap(context.Background(), routeWithTx(t, types.EVMTransaction{
		To: "0xD37BbE5744D730a1d98d8DC97c42F0Ca46aD7146",
	}))
	assert.EqualError(t, err, "failed to send transaction: insufficient funds for gas")
}

func TestExplorerTxURL(t *testing.T) {
	k := New(nil, nil)

	assert.Equal(t, "https://basescan.org/tx/0xabc", k.ExplorerTxURL(types.ChainBase, "0xabc"))
	assert.Equal(t, "https://runescan.io/tx/abc", k.ExplorerTxURL(types.ChainTHORChain, "0xabc"))
	assert.Equal(t, "", k.ExplorerTxURL("SOL", "0xabc"))
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount   *big.Int
		decimals int
		want     string
	}{
		{big.NewInt(0), 18, "0"},
		{big.NewInt(1), 18, "0.000000000000000001"},
		{big.NewInt(1_500_000_000_000_000_000), 18, "1.5"},
		{big.NewInt(100_000_000), 8, "1"},
		{big.NewInt(42), 0, "42"},
		{nil, 8, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUnits(tt.amount, tt.decimals))
	}
}
