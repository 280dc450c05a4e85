package history

import (
	"strings"
	"time"
)

// Status is the last known settlement state of a submitted swap
type Status string

const (
	StatusSubmitted Status = "submitted" // Broadcast, not yet tracked
	StatusPending   Status = "pending"   // Seen by the tracker, not final
	StatusCompleted Status = "completed" // Settled on the destination chain
	StatusFailed    Status = "failed"    // Refunded or reverted
	StatusUnknown   Status = "unknown"   // Tracker returned an unrecognised state
)

// Record is one submitted swap
type Record struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	TxHash            string   `json:"tx_hash"`
	SellAsset         string   `json:"sell_asset"`
	BuyAsset          string   `json:"buy_asset"`
	SellAmount        string   `json:"sell_amount"`
	ExpectedBuyAmount string   `json:"expected_buy_amount,omitempty"`
	Providers         []string `json:"providers,omitempty"`
	SourceAddress     string   `json:"source_address"`
	DestinationAddr   string   `json:"destination_address"`

	ExplorerURL string `json:"explorer_url,omitempty"`
	XScannerURL string `json:"xscanner_url,omitempty"`

	Status   Status `json:"status"`
	ToAmount string `json:"to_amount,omitempty"` // Filled once tracking reports it
}

// IsFinal reports whether the status can no longer change
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StatusFromTracking maps a tracker status string onto a Status
func StatusFromTracking(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "success", "swapped":
		return StatusCompleted
	case "failed", "refunded", "reverted":
		return StatusFailed
	case "pending", "not_started", "starting", "broadcasted", "mempool", "inbound", "swapping", "outbound":
		return StatusPending
	case "":
		return StatusSubmitted
	default:
		return StatusUnknown
	}
}
