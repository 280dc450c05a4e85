package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keystore-swap/pkg/history"
	"keystore-swap/pkg/types"
	"keystore-swap/pkg/workflow"
)

var noConfirm bool

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <sell-asset> to <buy-asset>",
	Short: "Quote, sign and submit a cross-chain swap",
	Long: `Connect both wallets, fetch the THORChain route, and after confirmation
sign and broadcast its transaction from the Base wallet.

The submitted swap is recorded in the local history file and can be tracked
with the status command.

Examples:
  keystore-swap swap 0.1 ETH to RUNE
  keystore-swap swap 0.1 BASE.ETH to THOR.RUNE --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	swapReq, err := parseSwapArgs(args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := cmd.Context()
	in := bufio.NewReader(os.Stdin)
	if err := a.connect(ctx, in); err != nil {
		printError(err)
		os.Exit(1)
	}

	route, err := a.fetchQuote(ctx, swapReq)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !a.jsonOutput {
		displayQuote(route)
	}

	// Ask for confirmation
	if !noConfirm && !a.jsonOutput {
		if !confirmSwap(in) {
			printSuccess("Swap cancelled.")
			return
		}
	}

	record, err := a.submitSwap(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displaySubmitted(record)
}

// submitSwap signs the selected route and journals the result
func (a *app) submitSwap(ctx context.Context) (*history.Record, error) {
	var txHash string
	err := a.withSpinner(" Signing and broadcasting...", func() error {
		var err error
		txHash, err = a.ctrl.Swap(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	snap := a.ctrl.Snapshot()
	rec := history.Record{
		TxHash:      txHash,
		ExplorerURL: a.ctrl.ExplorerTxURL(txHash),
		XScannerURL: workflow.XScannerURL(txHash),
	}
	if route := snap.SelectedRoute; route != nil {
		rec.SellAsset = route.SellAsset
		rec.BuyAsset = route.BuyAsset
		rec.SellAmount = route.SellAmount
		rec.ExpectedBuyAmount = route.ExpectedBuyAmount
		rec.Providers = route.Providers
	}
	rec.SourceAddress = snap.Wallets[types.ChainBase].Address
	rec.DestinationAddr = snap.Wallets[types.ChainTHORChain].Address

	stored, err := a.history.Append(rec)
	if err != nil {
		// The swap is already on chain; only the journal entry is lost
		a.log.Warn("failed to record swap", zap.String("tx_hash", txHash), zap.Error(err))
		return &rec, nil
	}

	return stored, nil
}

func displaySubmitted(rec *history.Record) {
	color.Green("\nSwap submitted successfully!")
	fmt.Printf("  Transaction: %s\n", color.CyanString(rec.TxHash))
	if rec.ExplorerURL != "" {
		fmt.Printf("  Explorer:    %s\n", rec.ExplorerURL)
	}
	fmt.Printf("  XScanner:    %s\n", rec.XScannerURL)

	fmt.Println("\nYou can monitor the swap status using:")
	color.Cyan("  keystore-swap status %s\n", rec.TxHash)
}

func confirmSwap(in *bufio.Reader) bool {
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := in.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
