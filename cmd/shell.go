package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keystore-swap/pkg/types"
	"keystore-swap/pkg/workflow"
)

var metricsAddr string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run an interactive swap session",
	Long: `Start an interactive session that keeps the connected wallets, asset
catalog and selected route between commands.

Commands:
  connect                             derive both wallets from the recovery phrase
  balances                            refresh and show balances
  assets [provider]                   fetch the asset catalog
  tokens [symbol]                     list fetched assets
  quote <amount> <sell> to <buy>      fetch and select a THORChain route
  swap                                sign and submit the selected route
  state                               show the session
  help                                show this help
  exit                                leave the shell

Examples:
  keystore-swap shell
  keystore-swap shell --metrics-addr :9464`,
	Args: cobra.NoArgs,
}

func init() {
	// assigned here to break the shellCmd -> runShell -> exec -> shellCmd.Long initialization cycle
	shellCmd.Run = runShell
	rootCmd.AddCommand(shellCmd)

	shellCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
}

func runShell(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := cmd.Context()

	if metricsAddr != "" {
		srv := a.serveMetrics(metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sh := &shell{a: a, in: bufio.NewReader(os.Stdin), out: os.Stdout}
	if err := sh.run(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func (a *app) serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.ctrl.Metrics().Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	a.log.Info("serving metrics", zap.String("addr", addr))

	return srv
}

type shell struct {
	a   *app
	in  *bufio.Reader
	out io.Writer
}

func (s *shell) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "keystore-swap interactive session. Type 'help' for commands.")

	for {
		fmt.Fprintf(s.out, "[%s]> ", s.a.ctrl.Snapshot().Stage)

		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		quit, execErr := s.exec(ctx, strings.TrimSpace(line))
		if execErr != nil {
			printError(execErr)
		}
		if quit || eof || ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one shell line against the session
func (s *shell) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "exit", "quit":
		return true, nil

	case "help":
		fmt.Fprintln(s.out, shellCmd.Long)
		return false, nil

	case "connect":
		if err := s.a.connect(ctx, s.in); err != nil {
			return false, err
		}
		for _, chain := range s.a.ctrl.Chains() {
			fmt.Fprintf(s.out, "  %-5s %s\n", chain, s.a.ctrl.Snapshot().Wallets[chain].Address)
		}
		return false, nil

	case "balances":
		err := s.a.withSpinner(" Fetching balances...", func() error {
			return s.a.ctrl.RefreshBalances(ctx)
		})
		if err != nil {
			return false, err
		}
		displayBalances(s.a.ctrl.Snapshot().Wallets)
		return false, nil

	case "assets":
		var provider types.ProviderName
		if len(fields) > 1 {
			provider = providerName(fields[1])
		}
		err := s.a.withSpinner(" Fetching supported tokens...", func() error {
			return s.a.ctrl.FetchAssets(ctx, provider)
		})
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "  %d assets available\n", len(s.a.ctrl.Snapshot().Assets))
		return false, nil

	case "tokens":
		symbol := ""
		if len(fields) > 1 {
			symbol = fields[1]
		}
		displayTokens(filterAssets(s.a.ctrl.Snapshot().Assets, "", symbol))
		return false, nil

	case "quote":
		swapReq, err := parseSwapArgs(fields[1:])
		if err != nil {
			return false, err
		}
		route, err := s.a.fetchQuote(ctx, swapReq)
		if err != nil {
			return false, err
		}
		displayQuote(route)
		return false, nil

	case "swap":
		if !s.a.ctrl.Snapshot().Stage.CanSwap() {
			return false, errors.New(workflow.MsgMissingRoute)
		}
		if !confirmSwap(s.in) {
			fmt.Fprintln(s.out, "Swap cancelled.")
			return false, nil
		}
		rec, err := s.a.submitSwap(ctx)
		if err != nil {
			return false, err
		}
		displaySubmitted(rec)
		return false, nil

	case "state":
		s.printState()
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %q, type 'help' for commands", fields[0])
	}
}

func (s *shell) printState() {
	snap := s.a.ctrl.Snapshot()

	fmt.Fprintf(s.out, "  Stage:       %s\n", color.CyanString(snap.Stage.String()))
	for _, chain := range s.a.ctrl.Chains() {
		if w, ok := snap.Wallets[chain]; ok {
			fmt.Fprintf(s.out, "  %-12s %s (%d balances)\n", string(chain)+":", w.Address, len(w.Balance))
		}
	}
	fmt.Fprintf(s.out, "  Assets:      %d\n", len(snap.Assets))
	if r := snap.SelectedRoute; r != nil {
		fmt.Fprintf(s.out, "  Route:       %s %s -> ~%s %s via %s\n",
			r.SellAmount, r.SellAsset, r.ExpectedBuyAmount, r.BuyAsset, strings.Join(r.Providers, " > "))
	}
	if snap.LastTxHash != "" {
		fmt.Fprintf(s.out, "  Last tx:     %s\n", snap.LastTxHash)
		fmt.Fprintf(s.out, "  Explorer:    %s\n", s.a.ctrl.ExplorerTxURL(snap.LastTxHash))
		fmt.Fprintf(s.out, "  XScanner:    %s\n", workflow.XScannerURL(snap.LastTxHash))
	}
}
