// Package config defines the top-level configuration for the arbitrage
// decision core and provides validation helpers. The core packages take
// plain parameter structs; only this package and cmd/ know about files.
package config

import (
	"fmt"
	"runtime"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBCORE_* environment
// variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Detector DetectorConfig `toml:"detector"`
	Finder   FinderConfig   `toml:"finder"`
	Risk     RiskConfig     `toml:"risk"`
	Cache    CacheConfig    `toml:"cache"`
	Registry RegistryConfig `toml:"registry"`
	Redis    RedisConfig    `toml:"redis"`
	Metrics  MetricsConfig  `toml:"metrics"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds the batch scheduler parameters.
type EngineConfig struct {
	BatchSize       int `toml:"batch_size"`
	Workers         int `toml:"workers"`
	BatchDeadlineMs int `toml:"batch_deadline_ms"`
}

// DetectorConfig holds the anomaly detector parameters. The class tables
// are base-currency name lists; empty lists keep the built-in defaults.
type DetectorConfig struct {
	HistoryCapacity           int      `toml:"history_capacity"`
	MemeLiquidityThreshold    float64  `toml:"meme_liquidity_threshold"`
	DeFiLiquidityThreshold    float64  `toml:"defi_liquidity_threshold"`
	DefaultLiquidityThreshold float64  `toml:"default_liquidity_threshold"`
	MemeBases                 []string `toml:"meme_bases"`
	DeFiBases                 []string `toml:"defi_bases"`
	MajorBases                []string `toml:"major_bases"`
}

// FinderConfig holds the opportunity finder parameters.
type FinderConfig struct {
	MinTriangularProfit    float64  `toml:"min_triangular_profit"`
	MinInterExchangeDiff   float64  `toml:"min_inter_exchange_diff"`
	FeeRate                float64  `toml:"fee_rate"`
	InterExchangeRetention float64  `toml:"inter_exchange_retention"`
	DefaultSize            float64  `toml:"default_size"`
	MaxSize                float64  `toml:"max_size"`
	Intermediates          []string `toml:"intermediates"`
}

// RiskConfig holds the account limits and stress-scenario parameters.
type RiskConfig struct {
	MaxSinglePosition      float64 `toml:"max_single_position"`
	MaxTotalPositions      float64 `toml:"max_total_positions"`
	MaxDailyLoss           float64 `toml:"max_daily_loss"`
	MaxDrawdown            float64 `toml:"max_drawdown"`
	CrashAdverseMove       float64 `toml:"crash_adverse_move"`
	CrashPenalty           float64 `toml:"crash_penalty"`
	LiquidityCrisisPenalty float64 `toml:"liquidity_crisis_penalty"`
}

// CacheConfig bounds the opportunity cache.
type CacheConfig struct {
	Capacity int `toml:"capacity"`
}

// RegistryConfig lists the tradable pair universe per exchange.
type RegistryConfig struct {
	Exchanges []ExchangePairs `toml:"exchanges"`
}

// ExchangePairs is one exchange's pair list.
type ExchangePairs struct {
	Name    string   `toml:"name"`
	Symbols []string `toml:"symbols"`
}

// RedisConfig holds Redis connection parameters for the bus adapter.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// Defaults returns the built-in configuration. Load merges the TOML file
// on top of this.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			BatchSize: 64,
			Workers:   runtime.NumCPU(),
		},
		Detector: DetectorConfig{
			HistoryCapacity:           100,
			MemeLiquidityThreshold:    0.1,
			DeFiLiquidityThreshold:    1.0,
			DefaultLiquidityThreshold: 5.0,
		},
		Finder: FinderConfig{
			MinTriangularProfit:    0.001,
			MinInterExchangeDiff:   0.005,
			FeeRate:                0.001,
			InterExchangeRetention: 0.8,
			DefaultSize:            1.0,
			MaxSize:                100.0,
		},
		Risk: RiskConfig{
			MaxSinglePosition:      10.0,
			MaxTotalPositions:      50.0,
			MaxDailyLoss:           1000.0,
			MaxDrawdown:            0.2,
			CrashAdverseMove:       0.30,
			CrashPenalty:           20.0,
			LiquidityCrisisPenalty: 10.0,
		},
		Cache: CacheConfig{Capacity: 10_000},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: ":9109",
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values the core cannot run with.
func (c *Config) Validate() error {
	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("config: engine.batch_size must be > 0")
	}
	if c.Engine.Workers <= 0 {
		return fmt.Errorf("config: engine.workers must be > 0")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("config: cache.capacity must be > 0")
	}
	if c.Finder.FeeRate < 0 {
		return fmt.Errorf("config: finder.fee_rate must be >= 0")
	}
	if c.Finder.InterExchangeRetention <= 0 || c.Finder.InterExchangeRetention > 1 {
		return fmt.Errorf("config: finder.inter_exchange_retention must be in (0, 1]")
	}
	if c.Risk.MaxDrawdown < 0 || c.Risk.MaxDrawdown > 1 {
		return fmt.Errorf("config: risk.max_drawdown must be in [0, 1]")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	for _, ex := range c.Registry.Exchanges {
		if ex.Name == "" {
			return fmt.Errorf("config: registry exchange with empty name")
		}
	}
	return nil
}
