package config

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":9980"
	}

	if len(c.Backfill.Resolutions) == 0 {
		c.Backfill.Resolutions = []string{"1m"}
	}
	if c.Backfill.TargetCandles <= 0 {
		c.Backfill.TargetCandles = 1000
	}
	if c.Backfill.Workers <= 0 {
		c.Backfill.Workers = 4
	}
	if c.Backfill.DiscoveryIntervalSeconds <= 0 {
		c.Backfill.DiscoveryIntervalSeconds = 300
	}
	if c.Backfill.PacingMilliseconds <= 0 {
		c.Backfill.PacingMilliseconds = 200
	}
	if c.Backfill.IdleBackoffSeconds <= 0 {
		c.Backfill.IdleBackoffSeconds = 5
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "candlefill"
	}
	if c.Redis.PoolSize <= 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DequeueWaitSeconds <= 0 {
		c.Redis.DequeueWaitSeconds = 2
	}

	if c.Store.Path == "" {
		c.Store.Path = "data/candles.db"
	}

	for name, ex := range c.Exchanges {
		if ex.Driver == "" {
			ex.Driver = name
		}
		if ex.HTTPTimeoutSeconds <= 0 {
			ex.HTTPTimeoutSeconds = 15
		}
		c.Exchanges[name] = ex
	}
}
