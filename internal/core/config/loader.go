package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// ErrInvalidConfig wraps every validation failure. Startup must abort on it.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads configuration from a YAML file, applies defaults and validates.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content after expanding environment variables. Keys
// absent from the document keep their Defaults value; explicit zeros are kept.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Defaults()
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns the configuration used for every key a file leaves out.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 8080},
		Chain: ChainConfig{
			Name:        "arbitrum",
			ExplorerURL: "https://arbiscan.io",
		},
		Token: AssetConfig{Decimals: 18},
		Paired: AssetConfig{
			Address:  "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
			Symbol:   "WETH",
			Decimals: 18,
		},
		Thresholds: ThresholdConfig{
			MinBuy:        10,
			MinSell:       40000,
			LargeTradeUSD: 1000,
		},
		Poller: PollerConfig{
			Interval:       3 * time.Second,
			MaxBlockSpan:   2000,
			BackoffInitial: 10 * time.Second,
			BackoffMax:     60 * time.Second,
		},
		Dedup: DedupConfig{
			Capacity:        100,
			InflightTimeout: 2 * time.Minute,
		},
		Holders: HolderConfig{
			ThresholdPct: 0.5,
			Capacity:     20,
		},
		Oracle: OracleConfig{
			URL:     "https://api.dexscreener.com/latest/dex/tokens",
			TTL:     30 * time.Second,
			Timeout: 5 * time.Second,
		},
		Alerts: AlertConfig{
			ImageMinUSD: 100,
			VideoMinUSD: 1000,
			SendTimeout: 30 * time.Second,
		},
	}
}

// normalize fills list entries, which YAML decodes fresh, and tidies URLs.
func (c *AppConfig) normalize() {
	c.Chain.ExplorerURL = strings.TrimRight(c.Chain.ExplorerURL, "/")
	for i := range c.Chain.Providers {
		if c.Chain.Providers[i].Name == "" {
			c.Chain.Providers[i].Name = fmt.Sprintf("provider-%d", i)
		}
		if c.Chain.Providers[i].Timeout == 0 {
			c.Chain.Providers[i].Timeout = 15 * time.Second
		}
	}
}

// Validate reports every problem at once, joined under ErrInvalidConfig.
func (c *AppConfig) Validate() error {
	var errs []error

	if len(c.Chain.Providers) == 0 {
		errs = append(errs, errors.New("chain.providers: at least one provider is required"))
	}
	for i, p := range c.Chain.Providers {
		if p.URL == "" {
			errs = append(errs, fmt.Errorf("chain.providers[%d]: url is required", i))
		}
	}

	if !common.IsHexAddress(c.Token.Address) {
		errs = append(errs, fmt.Errorf("token.address: %q is not a valid address", c.Token.Address))
	}
	if !common.IsHexAddress(c.Paired.Address) {
		errs = append(errs, fmt.Errorf("paired.address: %q is not a valid address", c.Paired.Address))
	}
	if c.Token.Decimals < 0 || c.Token.Decimals > 36 {
		errs = append(errs, fmt.Errorf("token.decimals: %d out of range", c.Token.Decimals))
	}

	seen := make(map[string]bool, len(c.Venues))
	for i, v := range c.Venues {
		if !common.IsHexAddress(v.Address) {
			errs = append(errs, fmt.Errorf("venues[%d].address: %q is not a valid address", i, v.Address))
		}
		kind, err := domain.ParseVenueKind(v.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("venues[%d].kind: %w", i, err))
		}
		if v.WatchSwaps && err == nil && !kind.IsPool() {
			errs = append(errs, fmt.Errorf("venues[%d]: watch_swaps requires a pool kind, got %s", i, kind))
		}
		key := strings.ToLower(v.Address)
		if seen[key] {
			errs = append(errs, fmt.Errorf("venues[%d]: duplicate address %s", i, v.Address))
		}
		seen[key] = true
	}

	if c.Thresholds.MinBuy < 0 || c.Thresholds.MinSell < 0 {
		errs = append(errs, errors.New("thresholds: minimums must not be negative"))
	}
	if c.Poller.Interval <= 0 {
		errs = append(errs, errors.New("poller.interval: must be positive"))
	}
	if c.Poller.MaxBlockSpan == 0 {
		errs = append(errs, errors.New("poller.max_block_span: must be positive"))
	}
	if c.Dedup.Capacity < 1 {
		errs = append(errs, errors.New("dedup.capacity: must be positive"))
	}
	if c.Holders.Capacity < 1 {
		errs = append(errs, errors.New("holders.capacity: must be positive"))
	}
	if c.Alerts.VideoMinUSD < c.Alerts.ImageMinUSD {
		errs = append(errs, errors.New("alerts: video_min_usd must not be below image_min_usd"))
	}

	if c.Alerts.BotToken == "" {
		errs = append(errs, errors.New("alerts.bot_token: required"))
	}
	if c.Alerts.ChatID == "" {
		errs = append(errs, errors.New("alerts.chat_id: required"))
	}

	for addr := range c.WalletLabels {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("wallet_labels: %q is not a valid address", addr))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
