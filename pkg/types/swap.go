package types

import "encoding/json"

// ProviderName identifies a liquidity provider in routes and catalog filters
type ProviderName string

const (
	ProviderThorchain ProviderName = "THORCHAIN"
)

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Amount    string
	SellAsset string
	BuyAsset  string
}

// QuoteRequest is the body sent to the quote endpoint
type QuoteRequest struct {
	SellAsset          string `json:"sellAsset"`
	BuyAsset           string `json:"buyAsset"`
	SellAmount         string `json:"sellAmount"`
	SourceAddress      string `json:"sourceAddress"`
	DestinationAddress string `json:"destinationAddress"`
	IncludeTx          bool   `json:"includeTx"`
}

// QuoteResponse holds the candidate routes for a quote request
type QuoteResponse struct {
	QuoteID string  `json:"quoteId,omitempty"`
	Routes  []Route `json:"routes"`
	Error   string  `json:"error,omitempty"`
}

// Route is one candidate execution path for a swap
type Route struct {
	Providers          []string        `json:"providers"`
	SellAsset          string          `json:"sellAsset"`
	BuyAsset           string          `json:"buyAsset"`
	SellAmount         string          `json:"sellAmount"`
	ExpectedBuyAmount  string          `json:"expectedBuyAmount"`
	SourceAddress      string          `json:"sourceAddress,omitempty"`
	DestinationAddress string          `json:"destinationAddress,omitempty"`
	TargetAddress      string          `json:"targetAddress,omitempty"`
	InboundAddress     string          `json:"inboundAddress,omitempty"`
	Memo               string          `json:"memo,omitempty"`
	TotalSlippageBps   float64         `json:"totalSlippageBps,omitempty"`
	Warnings           []RouteWarning  `json:"warnings,omitempty"`
	EstimatedTime      *EstimatedTime  `json:"estimatedTime,omitempty"`
	Tx                 json.RawMessage `json:"tx,omitempty"`
}

// RouteWarning is a provider notice attached to a route
type RouteWarning struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// EstimatedTime breaks down the expected settlement time in seconds
type EstimatedTime struct {
	Inbound  float64 `json:"inbound"`
	Swap     float64 `json:"swap"`
	Outbound float64 `json:"outbound"`
	Total    float64 `json:"total"`
}

// FirstProvider returns the provider the route starts with, or "" for an empty list
func (r Route) FirstProvider() string {
	if len(r.Providers) == 0 {
		return ""
	}
	return r.Providers[0]
}

// EVMTransaction is the submittable transaction attached to a route sourced on an EVM chain
type EVMTransaction struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	Data     string `json:"data"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
}
