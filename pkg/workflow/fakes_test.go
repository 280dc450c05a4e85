package workflow

import (
	"context"
	"errors"
	"sync"

	"keystore-swap/pkg/types"
)

type fakeWallets struct {
	mu sync.Mutex

	addresses   map[types.Chain]string
	balances    map[types.Chain][]types.Balance
	connectErr  error
	walletErr   map[types.Chain]error
	balanceErr  map[types.Chain]error
	connected   []types.Chain
	phrase      string
	block       chan struct{}
	connects    int
	balanceHits int
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{
		addresses: map[types.Chain]string{
			types.ChainBase:      "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
			types.ChainTHORChain: "thor1dheycdevq39qlkxs2a6wuuzyn4aqxhve4qxtxt",
		},
		balances: map[types.Chain][]types.Balance{
			types.ChainBase: {
				{Chain: types.ChainBase, Ticker: "ETH", Amount: "0.42"},
				{Chain: types.ChainBase, Ticker: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Amount: "100"},
			},
			types.ChainTHORChain: {
				{Chain: types.ChainTHORChain, Ticker: "RUNE", Amount: "12.5"},
			},
		},
		walletErr:  map[types.Chain]error{},
		balanceErr: map[types.Chain]error{},
	}
}

func (f *fakeWallets) Connect(_ context.Context, chains []types.Chain, phrase string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = append([]types.Chain(nil), chains...)
	f.phrase = phrase
	return nil
}

func (f *fakeWallets) Wallet(chain types.Chain) (types.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.walletErr[chain]; err != nil {
		return types.Wallet{}, err
	}
	return types.Wallet{Chain: chain, Address: f.addresses[chain], Balance: []types.Balance{}}, nil
}

func (f *fakeWallets) WalletWithBalance(ctx context.Context, chain types.Chain) (types.Wallet, error) {
	f.mu.Lock()
	f.balanceHits++
	block := f.block
	err := f.balanceErr[chain]
	address := f.addresses[chain]
	balances := append([]types.Balance(nil), f.balances[chain]...)
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return types.Wallet{}, ctx.Err()
		}
	}
	if err != nil {
		return types.Wallet{}, err
	}
	return types.Wallet{Chain: chain, Address: address, Balance: balances}, nil
}

func (f *fakeWallets) ExplorerTxURL(chain types.Chain, txHash string) string {
	return "https://explorer.test/" + string(chain) + "/tx/" + txHash
}

type fakeCatalog struct {
	mu        sync.Mutex
	tokens    []types.Asset
	err       error
	calls     int
	providers []types.ProviderName
}

func (f *fakeCatalog) GetTokens(_ context.Context, provider types.ProviderName) ([]types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.providers = append(f.providers, provider)
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

type fakeQuotes struct {
	mu       sync.Mutex
	routes   []types.Route
	err      error
	calls    int
	requests []types.QuoteRequest
	hook     func()
}

func (f *fakeQuotes) GetQuote(_ context.Context, req types.QuoteRequest) (*types.QuoteResponse, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	hook := f.hook
	routes, err := f.routes, f.err
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &types.QuoteResponse{Routes: routes}, nil
}

type fakeExecutor struct {
	mu     sync.Mutex
	hash   string
	err    error
	calls  int
	routes []types.Route
}

func (f *fakeExecutor) Swap(_ context.Context, route types.Route) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.routes = append(f.routes, route)
	if f.err != nil {
		return "", f.err
	}
	return f.hash, nil
}

var errUnavailable = errors.New("provider unavailable")

type harness struct {
	wallets  *fakeWallets
	catalog  *fakeCatalog
	quotes   *fakeQuotes
	executor *fakeExecutor
	ctrl     *Controller
}

func newHarness() *harness {
	h := &harness{
		wallets: newFakeWallets(),
		catalog: &fakeCatalog{tokens: []types.Asset{
			{Identifier: "BASE.ETH", Chain: "BASE", Ticker: "ETH", Decimals: 18},
			{Identifier: "THOR.RUNE", Chain: "THOR", Ticker: "RUNE", Decimals: 8},
		}},
		quotes: &fakeQuotes{routes: []types.Route{
			{Providers: []string{"CHAINFLIP"}, ExpectedBuyAmount: "10"},
			{Providers: []string{"THORCHAIN", "UNISWAP_V3"}, ExpectedBuyAmount: "12.3", Tx: []byte(`{"to":"0xrouter"}`)},
		}},
		executor: &fakeExecutor{hash: "0xabc123"},
	}
	h.ctrl = NewController(NewSession(), Dependencies{
		Wallets:  h.wallets,
		Catalog:  h.catalog,
		Quotes:   h.quotes,
		Executor: h.executor,
	})
	return h
}
