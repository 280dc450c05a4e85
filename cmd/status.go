package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keystore-swap/pkg/history"
	"keystore-swap/pkg/types"
)

// Base mainnet chain id, the source chain of every swap
const defaultTrackChainID = "8453"

var (
	watchStatus   bool
	watchInterval int
	trackChainID  string
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a submitted swap",
	Long: `Check the settlement status of a swap by its source transaction hash.
A matching entry in the local history is updated with the result.

Examples:
  keystore-swap status 0x1234...abcd
  keystore-swap status 0x1234...abcd --watch
  keystore-swap status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until the swap settles")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
	statusCmd.Flags().StringVar(&trackChainID, "chain-id", defaultTrackChainID, "Chain id of the source transaction")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	if watchStatus {
		if err := a.watchSwapStatus(cmd.Context(), txHash); err != nil {
			printError(err)
			os.Exit(1)
		}
		return
	}

	var status *types.SwapStatus
	err = a.withSpinner(" Checking swap status...", func() error {
		var err error
		status, err = a.checkSwapStatus(cmd.Context(), txHash)
		return err
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status, txHash)
	}
}

// checkSwapStatus tracks txHash and records the result in the history
func (a *app) checkSwapStatus(ctx context.Context, txHash string) (*types.SwapStatus, error) {
	status, err := a.api.Track(ctx, txHash, trackChainID)
	if err != nil {
		return nil, err
	}

	_, err = a.history.UpdateStatus(txHash, history.StatusFromTracking(trackingState(status)), status.ToAmount)
	if err != nil && !errors.Is(err, history.ErrNotFound) {
		a.log.Warn("failed to update history", zap.String("tx_hash", txHash), zap.Error(err))
	}

	return status, nil
}

func (a *app) watchSwapStatus(ctx context.Context, txHash string) error {
	if a.jsonOutput {
		return errors.New("watch mode not supported with JSON output")
	}
	if watchInterval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", watchInterval)
	}

	fmt.Printf("\nWatching swap status (Transaction: %s)\n", color.CyanString(txHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		status, err := a.checkSwapStatus(ctx, txHash)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayStatus(status, txHash)
			if history.StatusFromTracking(trackingState(status)).IsFinal() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// trackingState prefers the detailed tracking status when the API reports one
func trackingState(status *types.SwapStatus) string {
	if status.TrackingStatus != "" {
		return status.TrackingStatus
	}
	return status.Status
}

func displayStatus(status *types.SwapStatus, txHash string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SWAP STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction:     %s\n", color.CyanString(txHash))
	fmt.Printf("  Status:          %s\n", getColoredStatus(trackingState(status)))

	if status.FromAsset != "" {
		fmt.Printf("  Amount In:       %s %s\n", status.FromAmount, status.FromAsset)
	}
	if status.ToAsset != "" {
		fmt.Printf("  Amount Out:      %s %s\n", status.ToAmount, status.ToAsset)
	}
	if status.FinalisedAt > 0 {
		fmt.Printf("  Finalised:       %s\n", time.Unix(status.FinalisedAt, 0).Format("2006-01-02 15:04:05"))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch history.StatusFromTracking(status) {
	case history.StatusCompleted:
		return color.GreenString(status)
	case history.StatusPending, history.StatusSubmitted:
		return color.YellowString(status)
	case history.StatusFailed:
		return color.RedString(status)
	default:
		return status
	}
}
