// Package config loads server configuration from flags, environment
// variables, and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ListenAddr        string
	StorageBackend    string // "memory" or "postgres"
	PostgresDSN       string
	ClickhouseDSN     string // empty disables trade analytics
	WALDir            string // empty disables the ledger journal
	FeeNumerator      uint64
	FeeDenominator    uint64
	RatioToleranceBps uint64
	ShutdownTimeout   time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
// Environment variables use the DATADEX_ prefix with dashes mapped to
// underscores, e.g. DATADEX_POSTGRES_DSN.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DATADEX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen-addr", ":8080")
	v.SetDefault("storage", "memory")
	v.SetDefault("fee-numerator", uint64(997))
	v.SetDefault("fee-denominator", uint64(1000))
	v.SetDefault("ratio-tolerance-bps", uint64(100))
	v.SetDefault("shutdown-timeout", 15*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ListenAddr:        v.GetString("listen-addr"),
		StorageBackend:    v.GetString("storage"),
		PostgresDSN:       v.GetString("postgres-dsn"),
		ClickhouseDSN:     v.GetString("clickhouse-dsn"),
		WALDir:            v.GetString("wal-dir"),
		FeeNumerator:      v.GetUint64("fee-numerator"),
		FeeDenominator:    v.GetUint64("fee-denominator"),
		RatioToleranceBps: v.GetUint64("ratio-tolerance-bps"),
		ShutdownTimeout:   v.GetDuration("shutdown-timeout"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StorageBackend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	if c.StorageBackend == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("postgres storage requires --postgres-dsn")
	}

	if c.FeeDenominator == 0 || c.FeeNumerator > c.FeeDenominator {
		return fmt.Errorf("invalid fee %d/%d", c.FeeNumerator, c.FeeDenominator)
	}

	return nil
}
