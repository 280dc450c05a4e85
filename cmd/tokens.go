package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keystore-swap/pkg/types"
)

var (
	filterChain    string
	filterSymbol   string
	filterProvider string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List the tokens a liquidity provider can swap",
	Long: `List the asset catalog of a liquidity provider (THORCHAIN by default).

You can filter tokens by chain or symbol. The identifier column is what
quote and swap expect.

Examples:
  keystore-swap list-tokens
  keystore-swap list-tokens --chain BASE
  keystore-swap list-tokens --symbol USDC`,
	Args: cobra.NoArgs,
	Run:  runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterChain, "chain", "", "Filter by chain")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().StringVar(&filterProvider, "provider", "", "Liquidity provider (defaults to the configured provider)")
}

func runListTokens(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	provider := providerName(filterProvider)
	if provider == "" {
		provider = providerName(a.cfg.Provider)
	}

	err = a.withSpinner(" Fetching supported tokens...", func() error {
		return a.ctrl.FetchAssets(cmd.Context(), provider)
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	filtered := filterAssets(a.ctrl.Snapshot().Assets, filterChain, filterSymbol)

	// Output
	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered)
	}
}

func filterAssets(assets []types.Asset, chain, symbol string) []types.Asset {
	filtered := make([]types.Asset, 0, len(assets))
	for _, asset := range assets {
		if chain != "" && !strings.EqualFold(assetChain(asset), chain) {
			continue
		}
		if symbol != "" && !strings.Contains(strings.ToUpper(asset.Ticker), strings.ToUpper(symbol)) {
			continue
		}
		filtered = append(filtered, asset)
	}
	return filtered
}

// assetChain falls back to the identifier prefix when the catalog omits the chain
func assetChain(asset types.Asset) string {
	if asset.Chain != "" {
		return asset.Chain
	}
	if i := strings.Index(asset.Identifier, "."); i > 0 {
		return asset.Identifier[:i]
	}
	return ""
}

func displayTokens(tokens []types.Asset) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	// Group tokens by chain
	tokensByChain := make(map[string][]types.Asset)
	for _, token := range tokens {
		chain := strings.ToUpper(assetChain(token))
		tokensByChain[chain] = append(tokensByChain[chain], token)
	}

	chains := make([]string, 0, len(tokensByChain))
	for chain := range tokensByChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	for _, chain := range chains {
		color.Cyan("\n%s", chain)
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokensByChain[chain] {
			identifier := token.Identifier
			if len(identifier) > 56 {
				identifier = identifier[:53] + "..."
			}

			fmt.Printf("  %-10s  %2d decimals  %s\n",
				color.YellowString(token.Ticker),
				token.Decimals,
				color.HiBlackString(identifier))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d chains\n\n", len(tokens), len(chains))
}
