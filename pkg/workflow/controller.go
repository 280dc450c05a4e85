package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"keystore-swap/pkg/types"
)

const xscannerTxBaseURL = "http://xscanner.org/tx/"

// WalletProvider derives wallets for a connected recovery phrase
type WalletProvider interface {
	Connect(ctx context.Context, chains []types.Chain, phrase string) error
	Wallet(chain types.Chain) (types.Wallet, error)
	WalletWithBalance(ctx context.Context, chain types.Chain) (types.Wallet, error)
	ExplorerTxURL(chain types.Chain, txHash string) string
}

// AssetCatalog lists tradable tokens for a liquidity provider
type AssetCatalog interface {
	GetTokens(ctx context.Context, provider types.ProviderName) ([]types.Asset, error)
}

// QuoteProvider returns candidate routes for a swap request
type QuoteProvider interface {
	GetQuote(ctx context.Context, req types.QuoteRequest) (*types.QuoteResponse, error)
}

// SwapExecutor submits a route's transaction and returns its hash
type SwapExecutor interface {
	Swap(ctx context.Context, route types.Route) (string, error)
}

type operation string

const (
	opConnect = operation("connect_wallets")
	opRefresh = operation("refresh_balances")
	opAssets  = operation("fetch_assets")
	opQuote   = operation("fetch_quote")
	opSwap    = operation("swap")
)

// Dependencies groups the collaborators a Controller coordinates
type Dependencies struct {
	Wallets  WalletProvider
	Catalog  AssetCatalog
	Quotes   QuoteProvider
	Executor SwapExecutor
}

// Option customizes a Controller
type Option func(*Controller)

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.log = logger
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithChains sets the source (EVM) and destination (native) chains
func WithChains(source, destination types.Chain) Option {
	return func(c *Controller) {
		c.sourceChain = source
		c.destinationChain = destination
	}
}

// WithTargetProvider sets the liquidity provider routes must start with
func WithTargetProvider(provider types.ProviderName) Option {
	return func(c *Controller) {
		c.targetProvider = provider
	}
}

// QuoteInput carries the user's quote selection
type QuoteInput struct {
	SellAsset  string
	BuyAsset   string
	SellAmount string
}

// Controller drives the swap workflow over one Session
type Controller struct {
	deps    Dependencies
	log     *zap.Logger
	metrics *Metrics

	sourceChain      types.Chain
	destinationChain types.Chain
	targetProvider   types.ProviderName

	mu       sync.Mutex
	session  *Session
	inFlight map[operation]bool
}

// NewController creates a controller over session. A nil session starts disconnected.
func NewController(session *Session, deps Dependencies, opts ...Option) *Controller {
	if session == nil {
		session = NewSession()
	}
	if session.Wallets == nil {
		session.Wallets = make(map[types.Chain]types.Wallet)
	}

	c := &Controller{
		deps:             deps,
		session:          session,
		sourceChain:      types.ChainBase,
		destinationChain: types.ChainTHORChain,
		targetProvider:   types.ProviderThorchain,
		inFlight:         make(map[operation]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.metrics == nil {
		c.metrics = NewMetrics()
	}

	return c
}

// Chains returns the fixed chain set, source first
func (c *Controller) Chains() []types.Chain {
	return []types.Chain{c.sourceChain, c.destinationChain}
}

// Metrics returns the controller's metrics
func (c *Controller) Metrics() *Metrics {
	return c.metrics
}

// Snapshot returns a deep copy of the session
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// ConnectWallets registers phrase with the wallet provider for chains (the fixed
// chain set when none are given) and replaces those wallets in the session.
func (c *Controller) ConnectWallets(ctx context.Context, phrase string, chains ...types.Chain) (err error) {
	done, err := c.begin(opConnect)
	if err != nil {
		return err
	}
	defer done(&err)

	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return invalid(opConnect, MsgMissingMnemonic)
	}
	if len(chains) == 0 {
		chains = c.Chains()
	}

	if err := c.deps.Wallets.Connect(ctx, chains, phrase); err != nil {
		return transport(opConnect, err)
	}

	fetched := make(map[types.Chain]types.Wallet, len(chains))
	for _, chain := range chains {
		wallet, err := c.deps.Wallets.Wallet(chain)
		if err != nil {
			return transport(opConnect, fmt.Errorf("get %s wallet: %w", chain, err))
		}
		fetched[chain] = wallet.Clone()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	wallets := make(map[types.Chain]types.Wallet, len(c.session.Wallets)+len(fetched))
	for chain, wallet := range c.session.Wallets {
		wallets[chain] = wallet
	}
	for chain, wallet := range fetched {
		wallets[chain] = wallet
	}

	c.session.Wallets = wallets
	c.session.SelectedRoute = nil
	c.session.generation++
	c.session.Stage = c.session.Stage.next(evConnected)
	c.metrics.setConnectedWallets(len(wallets))

	for chain, wallet := range fetched {
		c.log.Info("wallet connected", zap.String("chain", string(chain)), zap.String("address", wallet.Address))
	}

	return nil
}

// RefreshBalances fetches a balance-annotated wallet for every chain of the
// fixed set concurrently and swaps in the new wallet map only if all succeed.
func (c *Controller) RefreshBalances(ctx context.Context) (err error) {
	done, err := c.begin(opRefresh)
	if err != nil {
		return err
	}
	defer done(&err)

	c.mu.Lock()
	connected := c.session.Stage != StageDisconnected
	generation := c.session.generation
	c.mu.Unlock()
	if !connected {
		return invalid(opRefresh, MsgConnectWalletsFirst)
	}

	chains := c.Chains()
	results := make([]types.Wallet, len(chains))
	errs := make([]error, len(chains))

	var g errgroup.Group
	for i, chain := range chains {
		i, chain := i, chain // per-iteration copies (go directive is below 1.22)
		g.Go(func() error {
			wallet, err := c.deps.Wallets.WalletWithBalance(ctx, chain)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", chain, err)
				return errs[i]
			}
			results[i] = wallet.Clone()
			return nil
		})
	}
	_ = g.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return transport(opRefresh, err)
	}

	wallets := make(map[types.Chain]types.Wallet, len(results))
	for i, wallet := range results {
		wallets[chains[i]] = wallet
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.generation != generation {
		return transport(opRefresh, errors.New("wallets reconnected during refresh"))
	}

	c.session.Wallets = wallets
	c.session.Stage = c.session.Stage.next(evBalancesFetched)
	c.metrics.setConnectedWallets(len(wallets))

	return nil
}

// FetchAssets replaces the session's asset list with the catalog of provider.
// An empty provider uses the target provider.
func (c *Controller) FetchAssets(ctx context.Context, provider types.ProviderName) (err error) {
	done, err := c.begin(opAssets)
	if err != nil {
		return err
	}
	defer done(&err)

	if provider == "" {
		provider = c.targetProvider
	}

	assets, err := c.deps.Catalog.GetTokens(ctx, provider)
	if err != nil {
		return transport(opAssets, err)
	}
	assets = append([]types.Asset(nil), assets...)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Assets = assets
	c.session.Stage = c.session.Stage.next(evAssetsFetched)
	c.log.Debug("assets fetched", zap.String("provider", string(provider)), zap.Int("count", len(assets)))

	return nil
}

// FetchQuote validates in, requests routes and selects the first route that
// starts with the target provider.
func (c *Controller) FetchQuote(ctx context.Context, in QuoteInput) (route types.Route, err error) {
	done, err := c.begin(opQuote)
	if err != nil {
		return types.Route{}, err
	}
	defer done(&err)

	if strings.TrimSpace(in.SellAsset) == "" {
		return types.Route{}, invalid(opQuote, MsgSelectSellAsset)
	}
	if strings.TrimSpace(in.BuyAsset) == "" {
		return types.Route{}, invalid(opQuote, MsgSelectBuyAsset)
	}
	amount, ok := parseSellAmount(in.SellAmount)
	if !ok {
		return types.Route{}, invalid(opQuote, MsgInvalidSellAmount)
	}

	c.mu.Lock()
	source := c.session.Wallets[c.sourceChain].Address
	destination := c.session.Wallets[c.destinationChain].Address
	generation := c.session.generation
	c.mu.Unlock()

	if source == "" {
		return types.Route{}, invalid(opQuote, MsgConnectSourceWallet)
	}
	if destination == "" {
		return types.Route{}, invalid(opQuote, MsgConnectDestinationWallet)
	}

	req := types.QuoteRequest{
		SellAsset:          in.SellAsset,
		BuyAsset:           in.BuyAsset,
		SellAmount:         strconv.FormatFloat(amount, 'f', -1, 64),
		SourceAddress:      source,
		DestinationAddress: destination,
		IncludeTx:          true,
	}

	resp, err := c.deps.Quotes.GetQuote(ctx, req)
	if err != nil {
		return types.Route{}, transport(opQuote, err)
	}
	if resp == nil {
		return types.Route{}, transport(opQuote, errors.New("empty quote response"))
	}

	selected, found := SelectRoute(resp.Routes, c.targetProvider)
	if !found {
		return types.Route{}, invalid(opQuote, MsgNoRouteFound)
	}
	selected = cloneRoute(selected)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.generation != generation {
		return types.Route{}, invalid(opQuote, MsgWalletsChanged)
	}

	stored := cloneRoute(selected)
	c.session.SelectedRoute = &stored
	c.session.Stage = c.session.Stage.next(evQuoted)
	c.log.Info("route selected",
		zap.String("sell_asset", req.SellAsset),
		zap.String("buy_asset", req.BuyAsset),
		zap.String("sell_amount", req.SellAmount),
		zap.Strings("providers", selected.Providers),
		zap.String("expected_buy_amount", selected.ExpectedBuyAmount),
	)

	return selected, nil
}

// Swap submits the selected route and records the transaction hash
func (c *Controller) Swap(ctx context.Context) (txHash string, err error) {
	done, err := c.begin(opSwap)
	if err != nil {
		return "", err
	}
	defer done(&err)

	c.mu.Lock()
	var route *types.Route
	if c.session.SelectedRoute != nil {
		r := cloneRoute(*c.session.SelectedRoute)
		route = &r
	}
	c.mu.Unlock()

	if route == nil {
		return "", invalid(opSwap, MsgMissingRoute)
	}

	txHash, err = c.deps.Executor.Swap(ctx, *route)
	if err != nil {
		return "", transport(opSwap, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.LastTxHash = txHash
	c.session.Stage = c.session.Stage.next(evSwapped)
	c.log.Info("swap submitted", zap.String("tx_hash", txHash))

	return txHash, nil
}

// ExplorerTxURL links the hash on the source chain's explorer
func (c *Controller) ExplorerTxURL(txHash string) string {
	if txHash == "" {
		return ""
	}
	return c.deps.Wallets.ExplorerTxURL(c.sourceChain, txHash)
}

// XScannerURL links the hash on xscanner
func XScannerURL(txHash string) string {
	if txHash == "" {
		return ""
	}
	return xscannerTxBaseURL + txHash
}

// SelectRoute returns the first route whose first provider is target
func SelectRoute(routes []types.Route, target types.ProviderName) (types.Route, bool) {
	for _, route := range routes {
		if route.FirstProvider() == string(target) {
			return route, true
		}
	}
	return types.Route{}, false
}

func parseSellAmount(raw string) (float64, bool) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// begin claims op for the caller. The returned func releases it and records the outcome.
func (c *Controller) begin(op operation) (func(*error), error) {
	c.mu.Lock()
	if c.inFlight[op] {
		c.mu.Unlock()
		c.metrics.incOperation(op, outcomeBusy)
		return nil, ErrOperationInFlight
	}
	c.inFlight[op] = true
	c.mu.Unlock()

	return func(errp *error) {
		c.mu.Lock()
		delete(c.inFlight, op)
		c.mu.Unlock()
		c.record(op, *errp)
	}, nil
}

func (c *Controller) record(op operation, err error) {
	switch {
	case err == nil:
		c.metrics.incOperation(op, outcomeOK)
	case IsValidation(err):
		c.metrics.incOperation(op, outcomeInvalid)
		c.log.Debug("operation rejected", zap.String("operation", string(op)), zap.Error(err))
	default:
		c.metrics.incOperation(op, outcomeFailed)
		c.log.Warn("operation failed", zap.String("operation", string(op)), zap.Error(err))
	}
}
