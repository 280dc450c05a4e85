package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"keystore-swap/pkg/types"
)

const (
	baseExplorerTxURL = "https://basescan.org/tx/"
	thorExplorerTxURL = "https://runescan.io/tx/"
)

// ErrNotConnected is returned when a chain has no wallet derived yet
var ErrNotConnected = errors.New("wallet not connected")

// Keystore derives wallets from a recovery phrase, reads their balances and
// signs swap transactions for the EVM source chain.
type Keystore struct {
	evm      EVMBackend
	thornode *THORNodeClient
	tokens   []common.Address
	log      *zap.Logger

	mu       sync.RWMutex
	accounts map[types.Chain]*account
}

// Option customizes a Keystore
type Option func(*Keystore)

// WithTokens sets the ERC20 contracts whose balances are reported
func WithTokens(addresses []string) Option {
	return func(k *Keystore) {
		for _, addr := range addresses {
			addr = strings.TrimSpace(addr)
			if common.IsHexAddress(addr) {
				k.tokens = append(k.tokens, common.HexToAddress(addr))
			}
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(k *Keystore) {
		k.log = logger
	}
}

// New creates a keystore backed by an EVM node and a THORNode endpoint
func New(evm EVMBackend, thornode *THORNodeClient, opts ...Option) *Keystore {
	k := &Keystore{
		evm:      evm,
		thornode: thornode,
		log:      zap.NewNop(),
		accounts: make(map[types.Chain]*account),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Connect derives an account for every chain from phrase. Accounts are only
// replaced once every chain derived successfully.
func (k *Keystore) Connect(_ context.Context, chains []types.Chain, phrase string) error {
	seed, err := seedFromMnemonic(strings.TrimSpace(phrase))
	if err != nil {
		return err
	}

	derived := make(map[types.Chain]*account, len(chains))
	for _, chain := range chains {
		acct, err := deriveAccount(seed, chain)
		if err != nil {
			return err
		}
		derived[chain] = acct
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for chain, acct := range derived {
		k.accounts[chain] = acct
		k.log.Debug("account derived", zap.String("chain", string(chain)), zap.String("address", acct.address))
	}

	return nil
}

// Wallet returns the connected wallet for chain without balances
func (k *Keystore) Wallet(chain types.Chain) (types.Wallet, error) {
	acct, err := k.account(chain)
	if err != nil {
		return types.Wallet{}, err
	}
	return types.Wallet{Chain: chain, Address: acct.address, Balance: []types.Balance{}}, nil
}

// WalletWithBalance returns the connected wallet for chain with fresh balances
func (k *Keystore) WalletWithBalance(ctx context.Context, chain types.Chain) (types.Wallet, error) {
	acct, err := k.account(chain)
	if err != nil {
		return types.Wallet{}, err
	}

	var balances []types.Balance
	switch {
	case chain.IsEVM():
		if k.evm == nil {
			return types.Wallet{}, fmt.Errorf("no RPC endpoint configured for %s", chain)
		}
		balances, err = evmBalances(ctx, k.evm, chain, common.HexToAddress(acct.address), k.tokens)
	case chain == types.ChainTHORChain:
		if k.thornode == nil {
			return types.Wallet{}, fmt.Errorf("no thornode endpoint configured")
		}
		balances, err = k.thornode.Balances(ctx, acct.address)
	default:
		err = fmt.Errorf("unsupported chain: %s", chain)
	}
	if err != nil {
		return types.Wallet{}, err
	}

	return types.Wallet{Chain: chain, Address: acct.address, Balance: balances}, nil
}

// ExplorerTxURL links txHash on the block explorer of chain
func (k *Keystore) ExplorerTxURL(chain types.Chain, txHash string) string {
	switch chain {
	case types.ChainBase:
		return baseExplorerTxURL + txHash
	case types.ChainTHORChain:
		return thorExplorerTxURL + strings.TrimPrefix(txHash, "0x")
	default:
		return ""
	}
}

// Swap signs and broadcasts the route's transaction from the connected EVM wallet
func (k *Keystore) Swap(ctx context.Context, route types.Route) (string, error) {
	acct, err := k.account(types.ChainBase)
	if err != nil {
		return "", err
	}
	if k.evm == nil {
		return "", fmt.Errorf("no RPC endpoint configured for %s", types.ChainBase)
	}

	call, err := decodeEVMTransaction(route.Tx)
	if err != nil {
		return "", err
	}

	hash, err := signAndSend(ctx, k.evm, acct, call)
	if err != nil {
		return "", err
	}

	k.log.Info("transaction broadcast",
		zap.String("tx_hash", hash),
		zap.String("to", call.To),
		zap.String("memo", route.Memo),
	)

	return hash, nil
}

func (k *Keystore) account(chain types.Chain) (*account, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	acct, ok := k.accounts[chain]
	if !ok {
		return nil, fmt.Errorf("%s: %w", chain, ErrNotConnected)
	}
	return acct, nil
}
