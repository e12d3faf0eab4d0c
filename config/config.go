// Package config loads server configuration from config.yaml and the
// environment. Every key has a default so a bare binary runs against a
// local Redis.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/openlot-io/openlot/engine"
)

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Redis   RedisConfig   `mapstructure:"redis"`
	PubNub  PubNubConfig  `mapstructure:"pubnub"`
	Auction AuctionConfig `mapstructure:"auction"`
	Log     LogConfig     `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Enabled false keeps all state in memory; useful for development.
	Enabled bool `mapstructure:"enabled"`
}

type PubNubConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	PublishKey   string `mapstructure:"publish_key"`
	SubscribeKey string `mapstructure:"subscribe_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UserID       string `mapstructure:"user_id"`
}

type AuctionConfig struct {
	TimerSeconds           int    `mapstructure:"timer_seconds"`
	AntiSnipeWindowSeconds int    `mapstructure:"anti_snipe_window_seconds"`
	ExtensionGraceSeconds  int    `mapstructure:"extension_grace_seconds"`
	MaxExtensions          int    `mapstructure:"max_extensions"`
	MinIncrement           string `mapstructure:"min_increment"`
	RequirePreBid          bool   `mapstructure:"require_pre_bid"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config.yaml from the given path (and the working directory) and
// overlays OPENLOT_* environment variables. A missing file is fine; missing
// keys fall back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("OPENLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8081")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("pubnub.enabled", false)
	v.SetDefault("pubnub.user_id", "openlot-server")
	v.SetDefault("auction.timer_seconds", 30)
	v.SetDefault("auction.anti_snipe_window_seconds", 10)
	v.SetDefault("auction.extension_grace_seconds", 15)
	v.SetDefault("auction.max_extensions", 3)
	v.SetDefault("auction.min_increment", "100")
	v.SetDefault("auction.require_pre_bid", false)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// EngineConfig converts the loaded auction section into the engine's
// per-auction defaults.
func (c *Config) EngineConfig() (engine.AuctionConfig, error) {
	inc, err := decimal.NewFromString(c.Auction.MinIncrement)
	if err != nil {
		return engine.AuctionConfig{}, fmt.Errorf("parse min_increment %q: %w", c.Auction.MinIncrement, err)
	}
	if !inc.IsPositive() {
		return engine.AuctionConfig{}, fmt.Errorf("min_increment must be positive, got %s", inc)
	}
	return engine.AuctionConfig{
		Timer: engine.TimerConfig{
			TimerSeconds:    c.Auction.TimerSeconds,
			AntiSnipeWindow: time.Duration(c.Auction.AntiSnipeWindowSeconds) * time.Second,
			ExtensionGrace:  time.Duration(c.Auction.ExtensionGraceSeconds) * time.Second,
			MaxExtensions:   c.Auction.MaxExtensions,
		},
		MinIncrement:  inc,
		RequirePreBid: c.Auction.RequirePreBid,
	}, nil
}
