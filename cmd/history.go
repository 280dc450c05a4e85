package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keystore-swap/config"
	"keystore-swap/pkg/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [id-or-hash]",
	Short: "List submitted swaps",
	Long: `List the swaps submitted from this machine, newest first, or show one
swap by its history id or transaction hash.

Examples:
  keystore-swap history
  keystore-swap history --limit 5
  keystore-swap history 0x1234...abcd`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of swaps to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// History only needs the file location, not the API
	v := config.New()
	_ = v.ReadInConfig()
	storage, err := history.NewStorage(v.GetString("history_file"))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if len(args) == 1 {
		rec, err := storage.Get(args[0])
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if jsonOutput {
			jsonData, _ := json.MarshalIndent(rec, "", "  ")
			fmt.Println(string(jsonData))
			return
		}
		displayRecord(rec)
		return
	}

	records := storage.List()
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Printf("\nNo swaps recorded in %s\n\n", storage.GetFilePath())
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBMITTED\tSELL\tBUY\tEXPECTED\tSTATUS\tTX HASH")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.SellAmount, r.SellAsset,
			r.BuyAsset,
			r.ExpectedBuyAmount,
			r.Status,
			shortHash(r.TxHash),
		)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d of %d swaps\n\n", len(records), storage.Count())
}

func displayRecord(r *history.Record) {
	color.Green("\nSwap %s", r.ID)
	fmt.Printf("  Submitted:   %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Sell:        %s %s\n", r.SellAmount, r.SellAsset)
	fmt.Printf("  Buy:         ~%s %s\n", r.ExpectedBuyAmount, r.BuyAsset)
	if r.ToAmount != "" {
		fmt.Printf("  Received:    %s\n", r.ToAmount)
	}
	fmt.Printf("  Status:      %s\n", getColoredStatus(string(r.Status)))
	fmt.Printf("  Transaction: %s\n", color.CyanString(r.TxHash))
	if r.ExplorerURL != "" {
		fmt.Printf("  Explorer:    %s\n", r.ExplorerURL)
	}
	if r.XScannerURL != "" {
		fmt.Printf("  XScanner:    %s\n", r.XScannerURL)
	}
	fmt.Println()
}

func shortHash(hash string) string {
	if len(hash) <= 18 {
		return hash
	}
	return hash[:10] + "..." + hash[len(hash)-6:]
}
