package types

// Asset is a tradable token from the asset catalog
type Asset struct {
	Identifier string `json:"identifier"`
	Chain      string `json:"chain,omitempty"`
	ChainID    string `json:"chainId,omitempty"`
	Ticker     string `json:"ticker,omitempty"`
	Name       string `json:"name,omitempty"`
	Address    string `json:"address,omitempty"`
	Decimals   int    `json:"decimals,omitempty"`
	LogoURI    string `json:"logoURI,omitempty"`
}

// TokensResponse is the body returned by the tokens endpoint
type TokensResponse struct {
	Provider string  `json:"provider,omitempty"`
	Count    int     `json:"count,omitempty"`
	Tokens   []Asset `json:"tokens"`
}

// TrackRequest asks the API for the progress of a submitted transaction
type TrackRequest struct {
	Hash    string `json:"hash"`
	ChainID string `json:"chainId"`
}

// SwapStatus represents the current status of a swap
type SwapStatus struct {
	ChainID        string `json:"chainId"`
	Hash           string `json:"hash"`
	Status         string `json:"status"`
	TrackingStatus string `json:"trackingStatus,omitempty"`
	FromAsset      string `json:"fromAsset,omitempty"`
	FromAmount     string `json:"fromAmount,omitempty"`
	ToAsset        string `json:"toAsset,omitempty"`
	ToAmount       string `json:"toAmount,omitempty"`
	FinalisedAt    int64  `json:"finalisedAt,omitempty"`
}
