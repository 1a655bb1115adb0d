package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	Eth       EthConfig       `yaml:"eth"`
	Contracts ContractsConfig `yaml:"contracts"`
	Harvest   HarvestConfig   `yaml:"harvest"`
	Swap      SwapConfig      `yaml:"swap"`
	State     StateConfig     `yaml:"state"`
	PriceFeed PriceFeedConfig `yaml:"price_feed"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Timescale TimescaleConfig `yaml:"timescale"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type EthConfig struct {
	RPCURL       string        `yaml:"rpc_url"`
	ChainID      int64         `yaml:"chain_id"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
	TxTimeout    time.Duration `yaml:"tx_timeout"`
	SweepAddress string        `yaml:"sweep_address"`
}

type ContractsConfig struct {
	Vault         string `yaml:"vault"`
	Want          string `yaml:"want"`
	LQTY          string `yaml:"lqty"`
	WETH          string `yaml:"weth"`
	DAI           string `yaml:"dai"`
	StabilityPool string `yaml:"stability_pool"`
	PriceFeed     string `yaml:"price_feed"`
	UniswapRouter string `yaml:"uniswap_router"`
	CurvePool     string `yaml:"curve_pool"`
	Frontend      string `yaml:"frontend"`
}

type HarvestConfig struct {
	Interval               time.Duration `yaml:"interval"`
	ReserveDebtOutstanding bool          `yaml:"reserve_debt_outstanding"`
	MinRewardValueUSD      float64       `yaml:"min_reward_value_usd"`
}

type SwapConfig struct {
	Route             string `yaml:"route"`
	CurveToleranceBps int    `yaml:"curve_tolerance_bps"`
	LQTYToWETHFee     uint32 `yaml:"lqty_to_weth_fee"`
	WETHToDAIFee      uint32 `yaml:"weth_to_dai_fee"`
	ETHToDAIFee       uint32 `yaml:"eth_to_dai_fee"`
	DAIToWantFee      uint32 `yaml:"dai_to_want_fee"`
	CurveDAIIndex     int64  `yaml:"curve_dai_index"`
	CurveWantIndex    int64  `yaml:"curve_want_index"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type PriceFeedConfig struct {
	Enabled        bool          `yaml:"enabled"`
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	LQTYSymbol     string        `yaml:"lqty_symbol"`
	ETHSymbol      string        `yaml:"eth_symbol"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type TelegramConfig struct {
	Enabled                bool          `yaml:"enabled"`
	Token                  string        `yaml:"token"`
	ChatID                 string        `yaml:"chat_id"`
	OperatorEnabled        bool          `yaml:"operator_enabled"`
	OperatorPollInterval   time.Duration `yaml:"operator_poll_interval"`
	OperatorAllowedUserIDs []int64       `yaml:"operator_allowed_user_ids"`
}

type TimescaleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	QueueSize       int           `yaml:"queue_size"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// The two supported venues for the final DAI -> want conversion hop.
const (
	RouteCurve   = "curve"
	RouteUniswap = "uniswap"
)

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Eth.ChainID == 0 {
		cfg.Eth.ChainID = 1
	}
	if cfg.Eth.CallTimeout == 0 {
		cfg.Eth.CallTimeout = 10 * time.Second
	}
	if cfg.Eth.TxTimeout == 0 {
		cfg.Eth.TxTimeout = 5 * time.Minute
	}
	if cfg.Harvest.Interval == 0 {
		cfg.Harvest.Interval = 6 * time.Hour
	}
	if cfg.Swap.Route == "" {
		cfg.Swap.Route = RouteCurve
	}
	if cfg.Swap.CurveToleranceBps == 0 {
		cfg.Swap.CurveToleranceBps = 500
	}
	if cfg.Swap.LQTYToWETHFee == 0 {
		cfg.Swap.LQTYToWETHFee = 3000
	}
	if cfg.Swap.WETHToDAIFee == 0 {
		cfg.Swap.WETHToDAIFee = 3000
	}
	if cfg.Swap.ETHToDAIFee == 0 {
		cfg.Swap.ETHToDAIFee = 3000
	}
	if cfg.Swap.DAIToWantFee == 0 {
		cfg.Swap.DAIToWantFee = 500
	}
	if cfg.Swap.CurveWantIndex == 0 && cfg.Swap.CurveDAIIndex == 0 {
		// LUSD/3CRV metapool layout: LUSD is coin 0, DAI is coin 1.
		cfg.Swap.CurveDAIIndex = 1
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/lusd-sp-engine.db"
	}
	if cfg.PriceFeed.ReconnectDelay == 0 {
		cfg.PriceFeed.ReconnectDelay = 3 * time.Second
	}
	if cfg.PriceFeed.LQTYSymbol == "" {
		cfg.PriceFeed.LQTYSymbol = "LQTYUSDT"
	}
	if cfg.PriceFeed.ETHSymbol == "" {
		cfg.PriceFeed.ETHSymbol = "ETHUSDT"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9108"
	}
	if cfg.Telegram.OperatorPollInterval == 0 {
		cfg.Telegram.OperatorPollInterval = 3 * time.Second
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Timescale.QueueSize == 0 {
		cfg.Timescale.QueueSize = 256
	}
}

func validate(cfg *Config) error {
	if cfg.Eth.RPCURL == "" {
		return errors.New("eth.rpc_url is required")
	}
	required := []struct {
		name  string
		value string
	}{
		{"contracts.vault", cfg.Contracts.Vault},
		{"contracts.want", cfg.Contracts.Want},
		{"contracts.lqty", cfg.Contracts.LQTY},
		{"contracts.weth", cfg.Contracts.WETH},
		{"contracts.dai", cfg.Contracts.DAI},
		{"contracts.stability_pool", cfg.Contracts.StabilityPool},
		{"contracts.price_feed", cfg.Contracts.PriceFeed},
		{"contracts.uniswap_router", cfg.Contracts.UniswapRouter},
		{"contracts.curve_pool", cfg.Contracts.CurvePool},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}
	if cfg.Swap.Route != RouteCurve && cfg.Swap.Route != RouteUniswap {
		return fmt.Errorf("swap.route must be %q or %q", RouteCurve, RouteUniswap)
	}
	if cfg.Swap.CurveToleranceBps < 0 || cfg.Swap.CurveToleranceBps >= 10000 {
		return errors.New("swap.curve_tolerance_bps must be in [0, 10000)")
	}
	if cfg.Swap.CurveDAIIndex == cfg.Swap.CurveWantIndex {
		return errors.New("swap.curve_dai_index and swap.curve_want_index must differ")
	}
	if cfg.Harvest.MinRewardValueUSD < 0 {
		return errors.New("harvest.min_reward_value_usd must be >= 0")
	}
	if cfg.PriceFeed.Enabled && cfg.PriceFeed.URL == "" {
		return errors.New("price_feed.url is required when price_feed.enabled")
	}
	if cfg.Timescale.Enabled && cfg.Timescale.DSN == "" {
		return errors.New("timescale.dsn is required when timescale.enabled")
	}
	return nil
}
