// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Ocean network settings
	NetworkName string // e.g. "development", "polygon", "mumbai"
	RPCURL      string
	ChainID     int64
	PrivateKey  string // Hex-encoded signing key, with or without 0x prefix
	KeyPath     string // File holding the signing key; used when PRIVATE_KEY is not set

	// Ocean contract addresses
	OceanTokenContract        string // OCEAN base token (ERC20)
	FixedRateExchangeContract string
	DispenserContract         string
	NFTFactoryContract        string

	// Ocean service endpoints
	AquariusURL string // metadata cache
	ProviderURL string // compute/data provider

	// Download settings
	DownloadDir string

	// Security / observability
	ReceiptHMACSecret string // HMAC secret for signing action receipts (optional)
	OTLPEndpoint      string // OTLP gRPC endpoint for traces (optional)
	RateLimitRPM      int
}

// Ocean barge development defaults
const (
	DefaultNetworkName = "development"
	DefaultRPCURL      = "http://localhost:8545"
	DefaultChainID     = 8996 // barge Ganache
	DefaultAquariusURL = "http://localhost:5000"
	DefaultProviderURL = "http://localhost:8030"
	DefaultPort        = "8080"
	DefaultEnv         = "development"
	DefaultLogLevel    = "info"
	DefaultDownloadDir = "./downloads"
	DefaultRateLimit   = 120
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                      getEnv("PORT", DefaultPort),
		Env:                       getEnv("ENV", DefaultEnv),
		LogLevel:                  getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:               os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		NetworkName:               getEnv("OCEAN_NETWORK_NAME", DefaultNetworkName),
		RPCURL:                    getEnv("RPC_URL", DefaultRPCURL),
		ChainID:                   getEnvInt64("CHAIN_ID", DefaultChainID),
		PrivateKey:                os.Getenv("PRIVATE_KEY"),
		KeyPath:                   os.Getenv("KEY_PATH"),
		OceanTokenContract:        os.Getenv("OCEAN_TOKEN_CONTRACT"),
		FixedRateExchangeContract: os.Getenv("FIXED_RATE_EXCHANGE_CONTRACT"),
		DispenserContract:         os.Getenv("DISPENSER_CONTRACT"),
		NFTFactoryContract:        os.Getenv("NFT_FACTORY_CONTRACT"),
		AquariusURL:               getEnv("AQUARIUS_URL", DefaultAquariusURL),
		ProviderURL:               getEnv("PROVIDER_URL", DefaultProviderURL),
		DownloadDir:               getEnv("DOWNLOAD_DIR", DefaultDownloadDir),
		ReceiptHMACSecret:         os.Getenv("RECEIPT_HMAC_SECRET"),
		OTLPEndpoint:              os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:              int(getEnvInt64("RATE_LIMIT_RPM", int64(DefaultRateLimit))),
	}

	if cfg.PrivateKey == "" && cfg.KeyPath != "" {
		key, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read KEY_PATH %q: %w", cfg.KeyPath, err)
		}
		cfg.PrivateKey = strings.TrimSpace(string(key))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY or KEY_PATH is required")
	}

	// Allow both with and without 0x prefix
	key := strings.TrimPrefix(c.PrivateKey, "0x")
	if len(key) != 64 {
		return fmt.Errorf("PRIVATE_KEY must be 64 hex characters (with or without 0x prefix)")
	}

	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if c.NetworkName == "" {
		return fmt.Errorf("OCEAN_NETWORK_NAME is required")
	}

	return nil
}

// FeeMarket reports whether the active network uses EIP-1559 fee pricing.
// The barge development chain predates the fee market; everything else
// the bridge targets supports it.
func (c *Config) FeeMarket() bool {
	return c.NetworkName != "development"
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
