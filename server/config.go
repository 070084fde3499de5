package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the reference server.
// Precedence: flags > CORRAL_* environment > config file > defaults.
type Config struct {
	Listen        string
	MetricsListen string
	PageLimit     int
	KeySeparator  string
	CacheSize     int
	CacheTTL      time.Duration
	OTLPEndpoint  string
}

func DefaultConfig() Config {
	return Config{
		Listen:        ":5052",
		MetricsListen: ":27667",
		PageLimit:     200,
		KeySeparator:  "_",
		CacheSize:     10000,
		CacheTTL:      60 * time.Second,
	}
}

// LoadConfig reads the server configuration with viper.
func LoadConfig(configPath string) (Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("server.listen", def.Listen)
	v.SetDefault("server.metrics_listen", def.MetricsListen)
	v.SetDefault("server.page_limit", def.PageLimit)
	v.SetDefault("server.key_separator", def.KeySeparator)
	v.SetDefault("server.cache_size", def.CacheSize)
	v.SetDefault("server.cache_ttl", def.CacheTTL)
	v.SetDefault("server.otlp_endpoint", "")

	v.SetEnvPrefix("CORRAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Config{
		Listen:        v.GetString("server.listen"),
		MetricsListen: v.GetString("server.metrics_listen"),
		PageLimit:     v.GetInt("server.page_limit"),
		KeySeparator:  v.GetString("server.key_separator"),
		CacheSize:     v.GetInt("server.cache_size"),
		CacheTTL:      v.GetDuration("server.cache_ttl"),
		OTLPEndpoint:  v.GetString("server.otlp_endpoint"),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.PageLimit <= 0 {
		return fmt.Errorf("page_limit must be positive, got %d", cfg.PageLimit)
	}
	if cfg.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", cfg.CacheSize)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", cfg.CacheTTL)
	}
	if cfg.KeySeparator == "" {
		return fmt.Errorf("key_separator must not be empty")
	}
	return nil
}
