package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServiceConfig carries process-wide settings for the facade and CLI,
// distinct from the per-backtest BacktestRequest.
type ServiceConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ListenAddr     string `mapstructure:"listen_addr"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
	MaxCacheSize   int    `mapstructure:"max_cache_size"`
	Provider       string `mapstructure:"provider"` // "rest" or "synthetic"
	BrokerBaseURL  string `mapstructure:"broker_base_url"`
	BrokerAPIKey   string `mapstructure:"broker_api_key"`
	ISTLocation    string `mapstructure:"ist_location"`
}

func defaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Enabled:        true,
		ListenAddr:     ":8080",
		WorkerPoolSize: 4,
		MaxCacheSize:   500,
		Provider:       "synthetic",
		ISTLocation:    "Asia/Kolkata",
	}
}

// LoadServiceConfig assembles a ServiceConfig from, in increasing
// priority: compiled-in defaults, an optional JSON config file, an
// optional .env file plus BACKTEST_-prefixed environment variables, and
// CLI flags already registered on flags. Any layer may be absent.
func LoadServiceConfig(configPath string, flags *pflag.FlagSet) (ServiceConfig, error) {
	cfg := defaultServiceConfig()

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("enabled", cfg.Enabled)
	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("worker_pool_size", cfg.WorkerPoolSize)
	v.SetDefault("max_cache_size", cfg.MaxCacheSize)
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("ist_location", cfg.ISTLocation)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	_ = godotenv.Load()
	v.SetEnvPrefix("BACKTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
