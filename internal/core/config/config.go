package config

import (
	"time"

	redisclient "github.com/vietddude/swapwatch/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	Chain        ChainConfig        `yaml:"chain"`
	Token        AssetConfig        `yaml:"token"`
	Paired       AssetConfig        `yaml:"paired"`
	Venues       []VenueConfig      `yaml:"venues"`
	Thresholds   ThresholdConfig    `yaml:"thresholds"`
	Poller       PollerConfig       `yaml:"poller"`
	Dedup        DedupConfig        `yaml:"dedup"`
	Holders      HolderConfig       `yaml:"holders"`
	Oracle       OracleConfig       `yaml:"oracle"`
	Redis        redisclient.Config `yaml:"redis"`
	Alerts       AlertConfig        `yaml:"alerts"`
	WalletLabels map[string]string  `yaml:"wallet_labels"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ChainConfig describes the ledger being watched.
type ChainConfig struct {
	Name        string           `yaml:"name"`
	ExplorerURL string           `yaml:"explorer_url"`
	Providers   []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AssetConfig identifies an ERC-20 token.
type AssetConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals int32  `yaml:"decimals"`
}

// VenueConfig is one entry of the venue catalogue.
type VenueConfig struct {
	Address    string `yaml:"address"`
	Kind       string `yaml:"kind"` // pool-v2, pool-v3, router, aggregator
	Name       string `yaml:"name"`
	WatchSwaps bool   `yaml:"watch_swaps"`
}

// ThresholdConfig holds alerting minimums. Token minimums are in whole
// token units.
type ThresholdConfig struct {
	MinBuy        float64 `yaml:"min_buy"`
	MinSell       float64 `yaml:"min_sell"`
	LargeTradeUSD float64 `yaml:"large_trade_usd"`
}

// PollerConfig controls log scanning.
type PollerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	MaxBlockSpan   uint64        `yaml:"max_block_span"`
	StartBlock     uint64        `yaml:"start_block"` // 0 = current head
	BackoffInitial time.Duration `yaml:"backoff_initial"`
	BackoffMax     time.Duration `yaml:"backoff_max"`
}

// DedupConfig sizes the processed transaction set.
type DedupConfig struct {
	Capacity        int           `yaml:"capacity"`
	InflightTimeout time.Duration `yaml:"inflight_timeout"`
}

// HolderConfig controls large-holder tracking.
type HolderConfig struct {
	ThresholdPct float64 `yaml:"threshold_pct"`
	Capacity     int     `yaml:"capacity"`
	Disabled     bool    `yaml:"disabled"`
}

// OracleConfig points at the price source.
type OracleConfig struct {
	URL     string        `yaml:"url"`
	TTL     time.Duration `yaml:"ttl"`
	Timeout time.Duration `yaml:"timeout"`
}

// AlertConfig configures the notification sink.
type AlertConfig struct {
	BotToken    string        `yaml:"bot_token"`
	ChatID      string        `yaml:"chat_id"`
	ImagePath   string        `yaml:"image_path"`
	VideoPath   string        `yaml:"video_path"`
	ImageMinUSD float64       `yaml:"image_min_usd"`
	VideoMinUSD float64       `yaml:"video_min_usd"`
	SendTimeout time.Duration `yaml:"send_timeout"`
	Commands    bool          `yaml:"commands"`
}
