package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keystore-swap/pkg/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "keystore-swap",
	Short: "A CLI for keystore-backed cross-chain swaps",
	Long: `keystore-swap derives a Base and a THORChain wallet from one recovery phrase,
fetches cross-chain quotes, and signs the selected THORChain route locally.

The recovery phrase is read from KEYSTORE_SWAP_MNEMONIC or prompted for.

Examples:
  keystore-swap balances
  keystore-swap list-tokens --symbol USDC
  keystore-swap quote 0.1 ETH to RUNE
  keystore-swap swap 0.1 BASE.ETH to THOR.RUNE
  keystore-swap status 0xabc...
  keystore-swap shell`,
	Version: "0.1.0",
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	if workflow.IsValidation(err) {
		color.Yellow("\n%v\n", err)
		return
	}
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
