package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"keystore-swap/config"
	"keystore-swap/pkg/client"
	"keystore-swap/pkg/history"
	"keystore-swap/pkg/keystore"
	"keystore-swap/pkg/types"
	"keystore-swap/pkg/workflow"
)

// app is everything a command needs, wired from configuration
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	api      *client.SwapKitClient
	keystore *keystore.Keystore
	history  *history.Storage
	ctrl     *workflow.Controller
	evm      *ethclient.Client

	jsonOutput bool
	verbose    bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.LogLevel, verbose)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		log:        logger,
		api:        client.NewSwapKitClient(cfg.APIBase, cfg.APIKey, cfg.RequestTimeout),
		jsonOutput: jsonOutput,
		verbose:    verbose,
	}

	var backend keystore.EVMBackend
	if cfg.EVMRPCURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		a.evm, err = ethclient.DialContext(ctx, cfg.EVMRPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
		}
		backend = a.evm
	}

	var thornode *keystore.THORNodeClient
	if cfg.THORNodeURL != "" {
		thornode = keystore.NewTHORNodeClient(cfg.THORNodeURL, cfg.RequestTimeout)
	}

	a.keystore = keystore.New(backend, thornode,
		keystore.WithTokens(cfg.EVMTokens),
		keystore.WithLogger(logger.Named("keystore")),
	)

	a.history, err = history.NewStorage(cfg.HistoryFile)
	if err != nil {
		return nil, err
	}

	a.ctrl = workflow.NewController(workflow.NewSession(), workflow.Dependencies{
		Wallets:  a.keystore,
		Catalog:  a.api,
		Quotes:   a.api,
		Executor: a.keystore,
	},
		workflow.WithLogger(logger.Named("workflow")),
		workflow.WithTargetProvider(providerName(cfg.Provider)),
	)

	return a, nil
}

// Close releases the RPC connection and flushes the logger
func (a *app) Close() {
	if a.evm != nil {
		a.evm.Close()
	}
	_ = a.log.Sync()
}

// connect reads the recovery phrase and connects both wallets
func (a *app) connect(ctx context.Context, in *bufio.Reader) error {
	phrase := a.cfg.Mnemonic
	if phrase == "" {
		var err error
		phrase, err = readMnemonic(in)
		if err != nil {
			return err
		}
	}

	return a.withSpinner(" Connecting wallets...", func() error {
		return a.ctrl.ConnectWallets(ctx, phrase)
	})
}

// withSpinner runs fn behind a spinner unless output is JSON
func (a *app) withSpinner(suffix string, fn func() error) error {
	if a.jsonOutput {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	s.Start()
	err := fn()
	s.Stop()

	return err
}

// readMnemonic prompts without echo on a terminal, otherwise reads one line
func readMnemonic(in *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Enter recovery phrase: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read recovery phrase: %w", err)
		}
		return string(raw), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read recovery phrase: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func providerName(s string) types.ProviderName {
	return types.ProviderName(strings.ToUpper(strings.TrimSpace(s)))
}
