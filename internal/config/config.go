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
	RPCURL           string
	TelegramToken    string
	PGDSN            string
	PollInterval     time.Duration
	Lookback         uint64
	RPCTimeout       time.Duration
	PriceBaseURL     string
	PriceTimeout     time.Duration
	TokenListPath    string
	JournalPath      string
	JournalEnabled   bool
	ProbeConcurrency int
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WALLETSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("poll-interval", 10*time.Second)
	v.SetDefault("lookback", uint64(100))
	v.SetDefault("rpc-timeout", 10*time.Second)
	v.SetDefault("price-timeout", 10*time.Second)
	v.SetDefault("journal", "./data/events.jsonl")
	v.SetDefault("journal-enabled", false)
	v.SetDefault("probe-concurrency", 8)
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
		RPCURL:           v.GetString("rpc"),
		TelegramToken:    v.GetString("telegram-token"),
		PGDSN:            v.GetString("pg-dsn"),
		PollInterval:     v.GetDuration("poll-interval"),
		Lookback:         v.GetUint64("lookback"),
		RPCTimeout:       v.GetDuration("rpc-timeout"),
		PriceBaseURL:     v.GetString("price-url"),
		PriceTimeout:     v.GetDuration("price-timeout"),
		TokenListPath:    v.GetString("token-list"),
		JournalPath:      v.GetString("journal"),
		JournalEnabled:   v.GetBool("journal-enabled"),
		ProbeConcurrency: v.GetInt("probe-concurrency"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}
