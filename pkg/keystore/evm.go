package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"keystore-swap/pkg/types"
)

const nativeDecimals = 18

// ERC20 read-only ABI
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EVMBackend is the subset of ethclient.Client used for balances and swaps
type EVMBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// evmBalances returns the native balance followed by every non-zero token balance
func evmBalances(ctx context.Context, backend EVMBackend, chain types.Chain, owner common.Address, tokens []common.Address) ([]types.Balance, error) {
	native, err := backend.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	balances := []types.Balance{{
		Chain:  chain,
		Ticker: "ETH",
		Amount: formatUnits(native, nativeDecimals),
	}}

	for _, token := range tokens {
		balance, err := erc20Balance(ctx, backend, chain, owner, token)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", token.Hex(), err)
		}
		if balance != nil {
			balances = append(balances, *balance)
		}
	}

	return balances, nil
}

// erc20Balance reads one token balance. A zero balance returns nil.
func erc20Balance(ctx context.Context, backend EVMBackend, chain types.Chain, owner, token common.Address) (*types.Balance, error) {
	out, err := callERC20(ctx, backend, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected balanceOf result")
	}
	if amount.Sign() == 0 {
		return nil, nil
	}

	out, err = callERC20(ctx, backend, token, "decimals")
	if err != nil {
		return nil, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return nil, errors.New("unexpected decimals result")
	}

	out, err = callERC20(ctx, backend, token, "symbol")
	if err != nil {
		return nil, err
	}
	symbol, ok := out[0].(string)
	if !ok {
		return nil, errors.New("unexpected symbol result")
	}

	return &types.Balance{
		Chain:   chain,
		Ticker:  symbol,
		Address: token.Hex(),
		Amount:  formatUnits(amount, int(decimals)),
	}, nil
}

func callERC20(ctx context.Context, backend EVMBackend, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsedERC20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	raw, err := backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	out, err := parsedERC20.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}

	return out, nil
}

// decodeEVMTransaction extracts the EVM call attached to a route
func decodeEVMTransaction(raw json.RawMessage) (*types.EVMTransaction, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("route carries no transaction")
	}

	var tx types.EVMTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("route transaction is not an EVM transaction: %w", err)
	}
	if !common.IsHexAddress(tx.To) {
		return nil, fmt.Errorf("route transaction is not an EVM transaction: invalid recipient %q", tx.To)
	}

	return &tx, nil
}

// signAndSend builds, signs (EIP-155) and broadcasts the route transaction from acct
func signAndSend(ctx context.Context, backend EVMBackend, acct *account, call *types.EVMTransaction) (string, error) {
	from := common.HexToAddress(acct.address)
	if call.From != "" && !strings.EqualFold(call.From, acct.address) {
		return "", fmt.Errorf("route transaction is for %s, connected wallet is %s", call.From, acct.address)
	}

	to := common.HexToAddress(call.To)

	value, ok := parseQuantity(call.Value)
	if !ok {
		return "", fmt.Errorf("invalid transaction value: %s", call.Value)
	}

	var data []byte
	if call.Data != "" && call.Data != "0x" {
		decoded, err := hexutil.Decode(call.Data)
		if err != nil {
			return "", fmt.Errorf("invalid transaction data: %w", err)
		}
		data = decoded
	}

	// Get nonce
	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	// Gas price from the route, otherwise from the node
	gasPrice, ok := parseQuantity(call.GasPrice)
	if !ok {
		return "", fmt.Errorf("invalid gas price: %s", call.GasPrice)
	}
	if gasPrice.Sign() == 0 {
		gasPrice, err = backend.SuggestGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	// Gas limit from the route, otherwise estimated with 20% headroom
	gas, ok := parseQuantity(call.Gas)
	if !ok || !gas.IsUint64() {
		return "", fmt.Errorf("invalid gas limit: %s", call.Gas)
	}
	gasLimit := gas.Uint64()
	if gasLimit == 0 {
		estimated, err := backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    &to,
			Value: value,
			Data:  data,
		})
		if err != nil {
			return "", fmt.Errorf("failed to estimate gas: %w", err)
		}
		gasLimit = estimated * 12 / 10
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain id: %w", err)
	}

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), acct.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash().Hex(), nil
}
