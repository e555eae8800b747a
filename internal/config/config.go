package config

import (
	"fmt"

	"candlefill/internal/market"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads one YAML config file, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	for _, res := range cfg.Backfill.Resolutions {
		if _, ok := market.ParseResolution(res); !ok {
			return fmt.Errorf("backfill.resolutions contains unparseable resolution %q", res)
		}
	}
	for name, ex := range cfg.Exchanges {
		if name == "" {
			return fmt.Errorf("exchanges map contains an empty exchange name")
		}
		if ex.Driver == "" {
			return fmt.Errorf("exchange %q has no driver", name)
		}
	}
	for i, seed := range cfg.Backfill.Seed {
		if seed.Exchange == "" || seed.Instrument == "" || seed.MarketType == "" {
			return fmt.Errorf("backfill.seed[%d] needs exchange, instrument and market_type", i)
		}
	}
	return nil
}
