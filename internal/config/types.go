package config

import "time"

type Config struct {
	App       AppConfig                 `mapstructure:"app"`
	Backfill  BackfillConfig            `mapstructure:"backfill"`
	Redis     RedisConfig               `mapstructure:"redis"`
	Store     StoreConfig               `mapstructure:"store"`
	Exchanges map[string]ExchangeConfig `mapstructure:"exchanges"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	HTTPAddr string `mapstructure:"http_addr"`
}

// BackfillConfig is read once at startup and never mutated afterwards.
type BackfillConfig struct {
	Whitelist     []string `mapstructure:"whitelist"`
	Resolutions   []string `mapstructure:"resolutions"`
	TargetCandles int      `mapstructure:"target_candles"`
	Workers       int      `mapstructure:"workers"`

	DiscoveryIntervalSeconds int `mapstructure:"discovery_interval_seconds"`
	PacingMilliseconds       int `mapstructure:"pacing_ms"`
	IdleBackoffSeconds       int `mapstructure:"idle_backoff_seconds"`

	// Seed rows for the instruments table, so a fresh store can resolve
	// market types without an external loader.
	Seed []InstrumentSeed `mapstructure:"seed"`
}

type InstrumentSeed struct {
	Exchange   string `mapstructure:"exchange"`
	Instrument string `mapstructure:"instrument"`
	MarketType string `mapstructure:"market_type"`
}

type RedisConfig struct {
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	KeyPrefix          string `mapstructure:"key_prefix"`
	PoolSize           int    `mapstructure:"pool_size"`
	DequeueWaitSeconds int    `mapstructure:"dequeue_wait_seconds"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ExchangeConfig struct {
	Driver             string `mapstructure:"driver"`
	RESTBaseURL        string `mapstructure:"rest_base_url"`
	HTTPTimeoutSeconds int    `mapstructure:"http_timeout_seconds"`
	ProxyEnabled       bool   `mapstructure:"proxy_enabled"`
	RESTProxyURL       string `mapstructure:"rest_proxy_url"`
}

func (b BackfillConfig) DiscoveryInterval() time.Duration {
	return time.Duration(b.DiscoveryIntervalSeconds) * time.Second
}

func (b BackfillConfig) Pacing() time.Duration {
	return time.Duration(b.PacingMilliseconds) * time.Millisecond
}

func (b BackfillConfig) IdleBackoff() time.Duration {
	return time.Duration(b.IdleBackoffSeconds) * time.Second
}

func (r RedisConfig) DequeueWait() time.Duration {
	return time.Duration(r.DequeueWaitSeconds) * time.Second
}

func (e ExchangeConfig) HTTPTimeout() time.Duration {
	return time.Duration(e.HTTPTimeoutSeconds) * time.Second
}
