package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ServerConfig configures the ledger service.
type ServerConfig struct {
	ListenAddr     string
	SQLitePath     string
	RedisURL       string
	AdminAddresses []common.Address
}

// ClientConfig configures the burn client.
type ClientConfig struct {
	RPCURL             string
	ChainID            int64
	NFTAddress         common.Address
	BurnManagerAddress common.Address
	BackendURL         string
	PrivateKeyHex      string
	RedisURL           string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadServer reads the ledger service configuration from the environment.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		ListenAddr: getenv("LISTEN_ADDR", ":8000"),
		SQLitePath: getenv("SQLITE_PATH", "whatburn.db"),
		RedisURL:   os.Getenv("REDIS_URL"),
	}

	for _, raw := range strings.Split(os.Getenv("ADMIN_ADDRESSES"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("ADMIN_ADDRESSES: %q is not an address", raw)
		}
		cfg.AdminAddresses = append(cfg.AdminAddresses, common.HexToAddress(raw))
	}

	return cfg, nil
}

// LoadClient reads the burn client configuration from the environment.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		RPCURL:        os.Getenv("RPC_URL"),
		BackendURL:    os.Getenv("BACKEND_URL"),
		PrivateKeyHex: strings.TrimPrefix(os.Getenv("PRIVATE_KEY"), "0x"),
		RedisURL:      os.Getenv("REDIS_URL"),
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if cfg.PrivateKeyHex == "" {
		return nil, fmt.Errorf("PRIVATE_KEY is required")
	}

	chainID, err := strconv.ParseInt(getenv("CHAIN_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("CHAIN_ID: %w", err)
	}
	cfg.ChainID = chainID

	for name, dst := range map[string]*common.Address{
		"NFT_ADDRESS":          &cfg.NFTAddress,
		"BURN_MANAGER_ADDRESS": &cfg.BurnManagerAddress,
	} {
		raw := os.Getenv(name)
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("%s: %q is not an address", name, raw)
		}
		*dst = common.HexToAddress(raw)
	}

	return cfg, nil
}
