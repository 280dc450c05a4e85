package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keystore-swap/pkg/types"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show the addresses and balances of both wallets",
	Long: `Derive the Base and THORChain wallets from the recovery phrase and list
their balances, grouped by chain.

Examples:
  keystore-swap balances
  KEYSTORE_SWAP_MNEMONIC="..." keystore-swap balances --json`,
	Args: cobra.NoArgs,
	Run:  runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
}

func runBalances(cmd *cobra.Command, args []string) {
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

	err = a.withSpinner(" Fetching balances...", func() error {
		return a.ctrl.RefreshBalances(ctx)
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	wallets := a.ctrl.Snapshot().Wallets
	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(wallets, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayBalances(wallets)
}

func displayBalances(wallets map[types.Chain]types.Wallet) {
	if len(wallets) == 0 {
		fmt.Println("\nNo wallets connected.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                               BALANCES")
	fmt.Println(strings.Repeat("=", 80))

	chains := make([]string, 0, len(wallets))
	for chain := range wallets {
		chains = append(chains, string(chain))
	}
	sort.Strings(chains)

	for _, chain := range chains {
		wallet := wallets[types.Chain(chain)]
		color.Cyan("\n%s", chain)
		fmt.Printf("  Address: %s\n", wallet.Address)
		fmt.Println(strings.Repeat("-", 80))

		if len(wallet.Balance) == 0 {
			fmt.Println("  (no balances)")
			continue
		}

		// One line per asset, keyed by its identifier
		byAsset := make(map[string]types.Balance, len(wallet.Balance))
		ids := make([]string, 0, len(wallet.Balance))
		for _, b := range wallet.Balance {
			id := b.AssetID()
			if _, seen := byAsset[id]; !seen {
				ids = append(ids, id)
			}
			byAsset[id] = b
		}

		for _, id := range ids {
			b := byAsset[id]
			fmt.Printf("  %-12s %24s  %s\n",
				color.YellowString(b.Ticker),
				b.Amount,
				color.HiBlackString(id))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80) + "\n")
}
