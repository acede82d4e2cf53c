package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

// VotingWindow is how long a round may sit open before any eligible owner
// can force-close it.
func VotingWindow() time.Duration {
	return 3 * 24 * time.Hour
}

// AdmissionCooldown rate-limits admission requests per address.
func AdmissionCooldown() time.Duration {
	return 30 * 24 * time.Hour
}

// ParticipationReward is the per-voter credit paid on every settlement,
// 0.1% of the required stake.
func ParticipationReward(requiredStake uint64) uint64 {
	return requiredStake / 1000
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Home string `mapstructure:"-"`

	ChainID    string `mapstructure:"chain_id"`
	ListenAddr string `mapstructure:"listen_addr"`

	// EthRPC, when set, backs capability probes with a live EVM endpoint.
	// Empty selects the in-memory probe (local mode).
	EthRPC string `mapstructure:"eth_rpc"`

	// TreasuryAddr is the registry's custody identity on the external
	// fungible ledger.
	TreasuryAddr string `mapstructure:"treasury_addr"`

	IndexerDB string `mapstructure:"indexer_db"`

	Log LogConfig `mapstructure:"log"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.stakegov")
	}
	cfg := &Config{
		Home:         home,
		ChainID:      "stakegov-local",
		ListenAddr:   "0.0.0.0:8545",
		EthRPC:       "",
		TreasuryAddr: "0x0000000000000000000000000000000000000100",
		IndexerDB:    filepath.Join(home, "data", "index.db"),
		Log:          LogConfig{Level: "info"},
	}
	_ = os.MkdirAll(filepath.Join(home, "config"), DefaultDirPerm)
	_ = os.MkdirAll(filepath.Join(home, "data"), DefaultDirPerm)
	return cfg
}

func (cfg *Config) ConfigFile() string {
	return filepath.Join(cfg.Home, "config", "config.toml")
}

func (cfg *Config) GenesisFile() string {
	return filepath.Join(cfg.Home, "config", "genesis.json")
}

func (cfg *Config) PrivKeyFile() string {
	return filepath.Join(cfg.Home, "config", "priv_key.json")
}

func (cfg *Config) DataDir() string {
	return filepath.Join(cfg.Home, "data")
}
