package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

const baseConfig = `
chain:
  providers:
    - name: primary
      url: ${TEST_ARB_RPC_URL}
token:
  address: "0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9"
  symbol: TALOS
  decimals: 9
venues:
  - address: "0xa51afafe0263b40edaef0df8781ea9aa03e381a3"
    kind: router
    name: Uniswap V2
  - address: "0xdaae914e4bae2aae4f536006c353117b90fb37e3"
    kind: pool-v2
    name: Uniswap V2
    watch_swaps: true
alerts:
  bot_token: ${TEST_BOT_TOKEN}
  chat_id: "-100123"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_ARB_RPC_URL", "https://arb1.example.org/rpc")
	t.Setenv("TEST_BOT_TOKEN", "123:abc")

	cfg, err := Load(writeTemp(t, baseConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chain.Providers[0].URL != "https://arb1.example.org/rpc" {
		t.Errorf("Expected substituted provider url, got %s", cfg.Chain.Providers[0].URL)
	}
	if cfg.Alerts.BotToken != "123:abc" {
		t.Errorf("Expected substituted bot token, got %s", cfg.Alerts.BotToken)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TEST_ARB_RPC_URL", "https://arb1.example.org/rpc")
	t.Setenv("TEST_BOT_TOKEN", "123:abc")

	cfg, err := Load(writeTemp(t, baseConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Poller.Interval != 3*time.Second {
		t.Errorf("poll interval = %v, want 3s", cfg.Poller.Interval)
	}
	if cfg.Thresholds.MinBuy != 10 || cfg.Thresholds.MinSell != 40000 {
		t.Errorf("thresholds = %v/%v, want 10/40000", cfg.Thresholds.MinBuy, cfg.Thresholds.MinSell)
	}
	if cfg.Dedup.Capacity != 100 {
		t.Errorf("dedup capacity = %d, want 100", cfg.Dedup.Capacity)
	}
	if cfg.Oracle.TTL != 30*time.Second {
		t.Errorf("oracle ttl = %v, want 30s", cfg.Oracle.TTL)
	}
	if cfg.Token.Decimals != 9 {
		t.Errorf("token decimals = %d, want 9", cfg.Token.Decimals)
	}
	if cfg.Paired.Symbol != "WETH" || cfg.Paired.Decimals != 18 {
		t.Errorf("paired = %s/%d, want WETH/18", cfg.Paired.Symbol, cfg.Paired.Decimals)
	}
}

func TestParse_ExplicitZerosKept(t *testing.T) {
	content := `
chain:
  providers:
    - url: http://localhost:8545
token:
  address: "0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9"
  decimals: 0
thresholds:
  min_buy: 0
  min_sell: 0
  large_trade_usd: 0
server:
  port: 0
alerts:
  bot_token: x
  chat_id: y
`
	cfg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Token.Decimals != 0 {
		t.Errorf("token decimals = %d, want 0", cfg.Token.Decimals)
	}
	if cfg.Thresholds.MinBuy != 0 || cfg.Thresholds.MinSell != 0 {
		t.Errorf("thresholds = %v/%v, want 0/0", cfg.Thresholds.MinBuy, cfg.Thresholds.MinSell)
	}
	if cfg.Thresholds.LargeTradeUSD != 0 {
		t.Errorf("large trade usd = %v, want 0", cfg.Thresholds.LargeTradeUSD)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("port = %d, want 0", cfg.Server.Port)
	}
	// Keys left out still get defaults.
	if cfg.Paired.Decimals != 18 || cfg.Alerts.SendTimeout != 30*time.Second {
		t.Errorf("paired decimals = %d, send timeout = %v", cfg.Paired.Decimals, cfg.Alerts.SendTimeout)
	}
	if cfg.Chain.Providers[0].Timeout != 15*time.Second {
		t.Errorf("provider timeout = %v, want 15s", cfg.Chain.Providers[0].Timeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "missing providers",
			content: "token:\n  address: \"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9\"\nalerts:\n  bot_token: x\n  chat_id: y\n",
			wantMsg: "chain.providers",
		},
		{
			name:    "bad token address",
			content: "chain:\n  providers:\n    - url: http://x\ntoken:\n  address: nope\nalerts:\n  bot_token: x\n  chat_id: y\n",
			wantMsg: "token.address",
		},
		{
			name: "unknown venue kind",
			content: "chain:\n  providers:\n    - url: http://x\ntoken:\n  address: \"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9\"\n" +
				"venues:\n  - address: \"0xa51afafe0263b40edaef0df8781ea9aa03e381a3\"\n    kind: bridge\n" +
				"alerts:\n  bot_token: x\n  chat_id: y\n",
			wantMsg: "unknown venue kind",
		},
		{
			name: "watch swaps on router",
			content: "chain:\n  providers:\n    - url: http://x\ntoken:\n  address: \"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9\"\n" +
				"venues:\n  - address: \"0xa51afafe0263b40edaef0df8781ea9aa03e381a3\"\n    kind: router\n    watch_swaps: true\n" +
				"alerts:\n  bot_token: x\n  chat_id: y\n",
			wantMsg: "watch_swaps requires a pool kind",
		},
		{
			name:    "zero poll interval",
			content: "chain:\n  providers:\n    - url: http://x\ntoken:\n  address: \"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9\"\npoller:\n  interval: 0s\nalerts:\n  bot_token: x\n  chat_id: y\n",
			wantMsg: "poller.interval",
		},
		{
			name:    "missing sink credentials",
			content: "chain:\n  providers:\n    - url: http://x\ntoken:\n  address: \"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9\"\n",
			wantMsg: "alerts.bot_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Error("read failure should not be reported as a validation error")
	}
}
