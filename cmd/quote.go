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

	"keystore-swap/pkg/parser"
	"keystore-swap/pkg/types"
	"keystore-swap/pkg/workflow"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <sell-asset> to <buy-asset>",
	Short: "Fetch a cross-chain quote without submitting it",
	Long: `Connect both wallets and fetch the THORChain route for a swap from the
Base wallet to the THORChain wallet.

Bare tickers ETH, RUNE and USDC are expanded to their full identifiers.

Examples:
  keystore-swap quote 0.1 ETH to RUNE
  keystore-swap quote 25 BASE.USDC-0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913 to THOR.RUNE`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
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
	if err := a.connect(ctx, bufio.NewReader(os.Stdin)); err != nil {
		printError(err)
		os.Exit(1)
	}

	route, err := a.fetchQuote(ctx, swapReq)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(route, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayQuote(route)
}

func parseSwapArgs(args []string) (*types.SwapRequest, error) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	if err := parser.ValidateSwapRequest(swapReq); err != nil {
		return nil, err
	}
	return swapReq, nil
}

func (a *app) fetchQuote(ctx context.Context, swapReq *types.SwapRequest) (types.Route, error) {
	var route types.Route
	err := a.withSpinner(" Fetching quote...", func() error {
		var err error
		route, err = a.ctrl.FetchQuote(ctx, workflow.QuoteInput{
			SellAsset:  swapReq.SellAsset,
			BuyAsset:   swapReq.BuyAsset,
			SellAmount: swapReq.Amount,
		})
		return err
	})

	if err == nil && a.verbose && !a.jsonOutput {
		fmt.Printf("\nRoute received:\n")
		routeJSON, _ := json.MarshalIndent(route, "", "  ")
		fmt.Println(string(routeJSON))
	}

	return route, err
}

func displayQuote(route types.Route) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Providers:         %s\n", color.CyanString(strings.Join(route.Providers, " > ")))
	fmt.Printf("  From:              %s %s\n", route.SellAmount, color.YellowString(route.SellAsset))
	fmt.Printf("  To:                ~%s %s\n", route.ExpectedBuyAmount, color.YellowString(route.BuyAsset))

	if route.SourceAddress != "" {
		fmt.Printf("  Source Address:    %s\n", route.SourceAddress)
	}
	if route.DestinationAddress != "" {
		fmt.Printf("  Destination:       %s\n", route.DestinationAddress)
	}
	if route.TotalSlippageBps != 0 {
		fmt.Printf("  Slippage:          %.2f%%\n", route.TotalSlippageBps/100)
	}
	if route.EstimatedTime != nil {
		fmt.Printf("  Estimated Time:    %.0f seconds\n", route.EstimatedTime.Total)
	}
	if route.Memo != "" {
		fmt.Printf("  Memo:              %s\n", color.MagentaString(route.Memo))
	}
	for _, w := range route.Warnings {
		color.Yellow("  Warning:           %s", w.Display)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
