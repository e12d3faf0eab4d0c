package config

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.NoError(t, err)

	check.Equal(t, ":8081", cfg.HTTP.Addr)
	check.Equal(t, "localhost:6379", cfg.Redis.Addr)
	check.True(t, cfg.Redis.Enabled)
	check.False(t, cfg.PubNub.Enabled)
	check.Equal(t, 30, cfg.Auction.TimerSeconds)
	check.Equal(t, "100", cfg.Auction.MinIncrement)
}

func TestEngineConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.NoError(t, err)

	ec, err := cfg.EngineConfig()
	assert.NoError(t, err)
	check.Equal(t, 30, ec.Timer.TimerSeconds)
	check.Equal(t, 10*time.Second, ec.Timer.AntiSnipeWindow)
	check.Equal(t, 15*time.Second, ec.Timer.ExtensionGrace)
	check.Equal(t, 3, ec.Timer.MaxExtensions)
	check.True(t, ec.MinIncrement.Equal(decimal.NewFromInt(100)))

	cfg.Auction.MinIncrement = "not-a-number"
	_, err = cfg.EngineConfig()
	check.Error(t, err)

	cfg.Auction.MinIncrement = "-5"
	_, err = cfg.EngineConfig()
	check.Error(t, err)
}
