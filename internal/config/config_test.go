package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
eth:
  rpc_url: "http://localhost:8545"
contracts:
  vault: "0x0000000000000000000000000000000000000001"
  want: "0x0000000000000000000000000000000000000002"
  lqty: "0x0000000000000000000000000000000000000003"
  weth: "0x0000000000000000000000000000000000000004"
  dai: "0x0000000000000000000000000000000000000005"
  stability_pool: "0x0000000000000000000000000000000000000006"
  price_feed: "0x0000000000000000000000000000000000000007"
  uniswap_router: "0x0000000000000000000000000000000000000008"
  curve_pool: "0x0000000000000000000000000000000000000009"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level = %q, want info", cfg.Log.Level)
	}
	if cfg.Eth.ChainID != 1 {
		t.Fatalf("chain id = %d, want 1", cfg.Eth.ChainID)
	}
	if cfg.Harvest.Interval != 6*time.Hour {
		t.Fatalf("harvest interval = %s, want 6h", cfg.Harvest.Interval)
	}
	if cfg.Swap.Route != RouteCurve {
		t.Fatalf("route = %q, want curve", cfg.Swap.Route)
	}
	if cfg.Swap.CurveToleranceBps != 500 {
		t.Fatalf("tolerance = %d, want 500", cfg.Swap.CurveToleranceBps)
	}
	if cfg.Swap.CurveDAIIndex != 1 || cfg.Swap.CurveWantIndex != 0 {
		t.Fatalf("curve indexes = %d/%d, want 1/0", cfg.Swap.CurveDAIIndex, cfg.Swap.CurveWantIndex)
	}
	if cfg.State.SQLitePath == "" {
		t.Fatal("sqlite path default missing")
	}
	if cfg.Metrics.ListenAddr != ":9108" {
		t.Fatalf("metrics addr = %q, want :9108", cfg.Metrics.ListenAddr)
	}
}

func TestLoadRejectsMissingRPC(t *testing.T) {
	yaml := `
contracts:
  vault: "0x0000000000000000000000000000000000000001"
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected error for missing rpc_url")
	}
}

func TestLoadRejectsMissingContract(t *testing.T) {
	yaml := `
eth:
  rpc_url: "http://localhost:8545"
contracts:
  vault: "0x0000000000000000000000000000000000000001"
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected error for missing contract address")
	}
}

func TestLoadRejectsUnknownRoute(t *testing.T) {
	yaml := minimalYAML + `
swap:
  route: "balancer"
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected error for unknown route")
	}
}

func TestLoadRejectsToleranceOutOfRange(t *testing.T) {
	yaml := minimalYAML + `
swap:
  curve_tolerance_bps: 10000
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected error for tolerance out of range")
	}
}

func TestLoadRejectsEnabledFeedWithoutURL(t *testing.T) {
	yaml := minimalYAML + `
price_feed:
  enabled: true
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected error for enabled feed without url")
	}
}
