package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFromViperRequiresAPIBase(t *testing.T) {
	t.Setenv("KEYSTORE_SWAP_API_BASE", "")

	_, err := FromViper(New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEYSTORE_SWAP_API_BASE")
}

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("KEYSTORE_SWAP_API_BASE", "https://api.example.com/")

	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBase)
	assert.Equal(t, DefaultProvider, cfg.Provider)
	assert.Equal(t, DefaultEVMRPCURL, cfg.EVMRPCURL)
	assert.Equal(t, DefaultTHORNodeURL, cfg.THORNodeURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, []string{"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"}, cfg.EVMTokens)
}

func TestFromViperEnvironmentOverrides(t *testing.T) {
	t.Setenv("KEYSTORE_SWAP_API_BASE", "https://api.example.com")
	t.Setenv("KEYSTORE_SWAP_PROVIDER", " thorchain ")
	t.Setenv("KEYSTORE_SWAP_REQUEST_TIMEOUT", "5s")
	t.Setenv("KEYSTORE_SWAP_EVM_TOKENS", "0xa, 0xb")

	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "THORCHAIN", cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"0xa", "0xb"}, cfg.EVMTokens)
}

func TestFromViperRejectsNonPositiveTimeout(t *testing.T) {
	v := New()
	v.Set("api_base", "https://api.example.com")
	v.Set("request_timeout", "0s")

	_, err := FromViper(v)
	assert.ErrorContains(t, err, "request_timeout must be positive")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("info", false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("error", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}
