package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"esusu/services/savings/chain"
	"esusu/services/savings/server"
)

// Config captures the runtime settings for the savings daemon.
type Config struct {
	ListenAddress string `yaml:"listen"`
	Environment   string `yaml:"env"`
	// Fixtures is a YAML or TOML demo file. Without a chain it supplies
	// campaigns and locks; with a chain it supplies locks only.
	Fixtures  string          `yaml:"fixtures"`
	Chain     ChainConfig     `yaml:"chain"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reward    RewardConfig    `yaml:"reward"`
}

// ChainConfig locates the savings contracts.
type ChainConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Network      string `yaml:"network"`
	RPCURL       string `yaml:"rpc_url"`
	ChainID      uint64 `yaml:"chain_id"`
	Thrift       string `yaml:"thrift"`
	Piggy        string `yaml:"piggy"`
	Pay          string `yaml:"pay"`
	TotalRounds  uint32 `yaml:"total_rounds"`
	MaxCampaigns uint64 `yaml:"max_campaigns"`
}

// RefreshConfig controls how often snapshots are rebuilt.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
	MinGap   time.Duration `yaml:"min_gap"`
}

// StorageConfig selects where snapshots are persisted. An empty DSN keeps
// snapshots in memory only.
type StorageConfig struct {
	Driver     string        `yaml:"driver"`
	DSN        string        `yaml:"dsn"`
	Retain     int           `yaml:"retain"`
	PruneEvery time.Duration `yaml:"prune_every"`
}

// LoggingConfig controls the log level and optional rotated log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// RateLimitConfig bounds per-client API usage. Zero disables limiting.
// Forwarded client addresses are only believed from TrustedProxies.
type RateLimitConfig struct {
	RequestsPerMinute float64  `yaml:"requests_per_minute"`
	Burst             int      `yaml:"burst"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
}

// RewardConfig sets the annual rate used by the reward estimator.
type RewardConfig struct {
	AnnualRate string `yaml:"annual_rate"`

	rate decimal.Decimal
}

// Rate returns the parsed annual rate. It is valid after Load.
func (cfg RewardConfig) Rate() decimal.Decimal {
	return cfg.rate
}

// Load reads the YAML configuration from disk and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Contracts returns the configured contract addresses. Unset addresses are
// left zero.
func (cfg Config) Contracts() chain.Contracts {
	return chain.Contracts{
		Thrift: optionalAddress(cfg.Chain.Thrift),
		Piggy:  optionalAddress(cfg.Chain.Piggy),
		Pay:    optionalAddress(cfg.Chain.Pay),
	}
}

func optionalAddress(raw string) common.Address {
	if raw == "" {
		return common.Address{}
	}
	return common.HexToAddress(raw)
}

func (cfg *Config) normalize() {
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8085"
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.Fixtures = strings.TrimSpace(cfg.Fixtures)
	cfg.Chain.normalize()
	cfg.Refresh.normalize()
	cfg.Storage.normalize()
	cfg.Logging.normalize()
	cfg.RateLimit.normalize()
	cfg.Reward.AnnualRate = strings.TrimSpace(cfg.Reward.AnnualRate)
	if cfg.Reward.AnnualRate == "" {
		cfg.Reward.AnnualRate = "0.05"
	}
}

func (cfg *Config) validate() error {
	if !cfg.Chain.Enabled && cfg.Fixtures == "" {
		return fmt.Errorf("either chain.enabled or fixtures must be configured")
	}
	if err := cfg.Chain.validate(); err != nil {
		return fmt.Errorf("chain: %w", err)
	}
	if err := cfg.Refresh.validate(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if cfg.RateLimit.RequestsPerMinute < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if _, err := server.ParseTrustedProxies(cfg.RateLimit.TrustedProxies); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	rate, err := decimal.NewFromString(cfg.Reward.AnnualRate)
	if err != nil {
		return fmt.Errorf("reward: annual_rate %q is not a number", cfg.Reward.AnnualRate)
	}
	if rate.IsNegative() {
		return fmt.Errorf("reward: annual_rate must not be negative")
	}
	cfg.Reward.rate = rate
	return nil
}

func (cfg *ChainConfig) normalize() {
	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	if cfg.Network == "" {
		cfg.Network = "celo"
	}
	cfg.RPCURL = strings.TrimSpace(cfg.RPCURL)
	cfg.Thrift = strings.TrimSpace(cfg.Thrift)
	cfg.Piggy = strings.TrimSpace(cfg.Piggy)
	cfg.Pay = strings.TrimSpace(cfg.Pay)
	if network, ok := chain.LookupNetwork(cfg.Network); ok {
		if cfg.RPCURL == "" {
			cfg.RPCURL = network.RPCURL
		}
		if cfg.ChainID == 0 {
			cfg.ChainID = network.ChainID
		}
	}
	if cfg.TotalRounds == 0 {
		cfg.TotalRounds = chain.DefaultTotalRounds
	}
	if cfg.MaxCampaigns == 0 {
		cfg.MaxCampaigns = chain.DefaultMaxCampaigns
	}
}

func (cfg ChainConfig) validate() error {
	for name, value := range map[string]string{"thrift": cfg.Thrift, "piggy": cfg.Piggy, "pay": cfg.Pay} {
		if value != "" && !common.IsHexAddress(value) {
			return fmt.Errorf("%s address %q is invalid", name, value)
		}
	}
	if !cfg.Enabled {
		return nil
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc_url required for network %q", cfg.Network)
	}
	if cfg.Thrift == "" {
		return fmt.Errorf("thrift address required")
	}
	return nil
}

func (cfg *RefreshConfig) normalize() {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MinGap == 0 {
		cfg.MinGap = 5 * time.Second
	}
}

func (cfg RefreshConfig) validate() error {
	if cfg.Interval < 0 || cfg.MinGap < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if cfg.MinGap > cfg.Interval {
		return fmt.Errorf("min_gap %s exceeds interval %s", cfg.MinGap, cfg.Interval)
	}
	return nil
}

func (cfg *StorageConfig) normalize() {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	if cfg.Retain == 0 {
		cfg.Retain = 100
	}
	if cfg.PruneEvery == 0 {
		cfg.PruneEvery = 10 * time.Minute
	}
}

func (cfg StorageConfig) validate() error {
	if cfg.Driver != "sqlite" && cfg.Driver != "postgres" {
		return fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if cfg.Retain < 1 {
		return fmt.Errorf("retain must be at least 1")
	}
	if cfg.PruneEvery < 0 {
		return fmt.Errorf("prune_every must not be negative")
	}
	return nil
}

func (cfg *LoggingConfig) normalize() {
	cfg.Level = strings.TrimSpace(cfg.Level)
	cfg.File = strings.TrimSpace(cfg.File)
	if cfg.File == "" {
		return
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 28
	}
}

func (cfg *RateLimitConfig) normalize() {
	if cfg.RequestsPerMinute > 0 && cfg.Burst == 0 {
		cfg.Burst = 20
	}
}
