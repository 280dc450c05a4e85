package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultProvider       = "THORCHAIN"
	DefaultEVMRPCURL      = "https://mainnet.base.org"
	DefaultTHORNodeURL    = "https://thornode.ninerealms.com"
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "warn"
)

// Config holds the application configuration
type Config struct {
	APIBase        string
	APIKey         string
	Provider       string
	EVMRPCURL      string
	THORNodeURL    string
	RequestTimeout time.Duration
	LogLevel       string
	HistoryFile    string
	Mnemonic       string
	EVMTokens      []string
}

var globalConfig *Config

// New builds a viper instance with every default, the optional config file and
// the KEYSTORE_SWAP_ environment prefix.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(".keystore-swap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Set default values
	v.SetDefault("api_base", "")
	v.SetDefault("api_key", "")
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("evm_rpc_url", DefaultEVMRPCURL)
	v.SetDefault("thornode_url", DefaultTHORNodeURL)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("history_file", "")
	v.SetDefault("mnemonic", "")
	v.SetDefault("evm_tokens", []string{"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"})

	// Read from environment variables
	v.SetEnvPrefix("KEYSTORE_SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := New()

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// FromViper extracts and validates a Config
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIBase:        strings.TrimRight(strings.TrimSpace(v.GetString("api_base")), "/"),
		APIKey:         v.GetString("api_key"),
		Provider:       strings.ToUpper(strings.TrimSpace(v.GetString("provider"))),
		EVMRPCURL:      v.GetString("evm_rpc_url"),
		THORNodeURL:    v.GetString("thornode_url"),
		RequestTimeout: v.GetDuration("request_timeout"),
		LogLevel:       v.GetString("log_level"),
		HistoryFile:    v.GetString("history_file"),
		Mnemonic:       v.GetString("mnemonic"),
		EVMTokens:      splitList(v.GetStringSlice("evm_tokens")),
	}

	// Validate API base
	if cfg.APIBase == "" {
		return nil, fmt.Errorf("API base URL not found. Please set KEYSTORE_SWAP_API_BASE environment variable or create a .keystore-swap.yaml config file")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request_timeout must be positive, got %s", cfg.RequestTimeout)
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}

	return cfg, nil
}

// Get returns the global configuration
func Get() (*Config, error) {
	if globalConfig == nil {
		return Load()
	}
	return globalConfig, nil
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

// NewLogger builds a console logger at level, writing to stderr
func NewLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.DisableStacktrace = true
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	return zcfg.Build()
}

// splitList accepts both YAML lists and comma separated env values
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
