package types

import "strings"

// Chain identifies a blockchain network
type Chain string

const (
	ChainBase      Chain = "BASE"
	ChainTHORChain Chain = "THOR"
)

// IsEVM reports whether the chain uses EVM accounts and transactions
func (c Chain) IsEVM() bool {
	switch c {
	case ChainBase:
		return true
	default:
		return false
	}
}

// Balance is the amount of one asset held by a wallet
type Balance struct {
	Chain   Chain  `json:"chain"`
	Ticker  string `json:"ticker"`
	Address string `json:"address,omitempty"`
	Amount  string `json:"amount"`
}

// AssetID derives the display and grouping key of the balance's asset
func (b Balance) AssetID() string {
	return AssetID(b.Chain, b.Ticker, b.Address)
}

// AssetID builds "CHAIN.TICKER" or "CHAIN.TICKER-ADDRESS" when a contract address is present
func AssetID(chain Chain, ticker, address string) string {
	var sb strings.Builder
	sb.WriteString(string(chain))
	sb.WriteString(".")
	sb.WriteString(ticker)
	if address != "" {
		sb.WriteString("-")
		sb.WriteString(address)
	}
	return sb.String()
}

// Wallet is an address and its balances on one chain
type Wallet struct {
	Chain   Chain     `json:"chain"`
	Address string    `json:"address"`
	Balance []Balance `json:"balance"`
}

// Clone returns a copy that shares no slices with w
func (w Wallet) Clone() Wallet {
	out := w
	if w.Balance != nil {
		out.Balance = append([]Balance(nil), w.Balance...)
	}
	return out
}
