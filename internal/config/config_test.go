package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_WithValidConfig(t *testing.T) {
	setEnv(t, "PRIVATE_KEY", testKey)
	setEnv(t, "KEY_PATH", "")
	setEnv(t, "PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, int64(DefaultChainID), cfg.ChainID)
	assert.Equal(t, DefaultNetworkName, cfg.NetworkName)
	assert.Equal(t, DefaultAquariusURL, cfg.AquariusURL)
	assert.Equal(t, DefaultProviderURL, cfg.ProviderURL)
}

func TestLoad_KeyFromFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte(testKey+"\n"), 0o600))

	setEnv(t, "PRIVATE_KEY", "")
	setEnv(t, "KEY_PATH", keyFile)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, testKey, cfg.PrivateKey)
}

func TestLoad_MissingKey(t *testing.T) {
	setEnv(t, "PRIVATE_KEY", "")
	setEnv(t, "KEY_PATH", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PRIVATE_KEY or KEY_PATH is required")
}

func TestLoad_MissingKeyFile(t *testing.T) {
	setEnv(t, "PRIVATE_KEY", "")
	setEnv(t, "KEY_PATH", filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read KEY_PATH")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid config",
			config: Config{
				PrivateKey:  testKey,
				RPCURL:      "https://polygon-rpc.com",
				NetworkName: "polygon",
			},
			wantErr: "",
		},
		{
			name: "0x prefixed key",
			config: Config{
				PrivateKey:  "0x" + testKey,
				RPCURL:      "https://polygon-rpc.com",
				NetworkName: "polygon",
			},
			wantErr: "",
		},
		{
			name: "invalid private key length",
			config: Config{
				PrivateKey:  "abc123",
				RPCURL:      "https://polygon-rpc.com",
				NetworkName: "polygon",
			},
			wantErr: "64 hex characters",
		},
		{
			name: "missing RPC URL",
			config: Config{
				PrivateKey:  testKey,
				RPCURL:      "",
				NetworkName: "polygon",
			},
			wantErr: "RPC_URL is required",
		},
		{
			name: "missing network name",
			config: Config{
				PrivateKey: testKey,
				RPCURL:     "https://polygon-rpc.com",
			},
			wantErr: "OCEAN_NETWORK_NAME is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_FeeMarket(t *testing.T) {
	assert.False(t, (&Config{NetworkName: "development"}).FeeMarket())
	assert.True(t, (&Config{NetworkName: "polygon"}).FeeMarket())
	assert.True(t, (&Config{NetworkName: "mumbai"}).FeeMarket())
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvInt64(t *testing.T) {
	setEnv(t, "TEST_INT", "42")
	setEnv(t, "TEST_INVALID", "not_a_number")

	assert.Equal(t, int64(42), getEnvInt64("TEST_INT", 0))
	assert.Equal(t, int64(99), getEnvInt64("NONEXISTENT_VAR", 99))
	assert.Equal(t, int64(99), getEnvInt64("TEST_INVALID", 99)) // Falls back on parse error
}
