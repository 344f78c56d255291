package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	// set up some defaults
	cfg := DefaultConfig()
	assert.NotNil(cfg.Server)
	assert.NotNil(cfg.Market)
	assert.NotNil(cfg.Instrumentation)

	// check the root dir stuff...
	cfg.SetRoot("/foo")
	assert.Equal("/foo/config/config.toml", cfg.ConfigFile())

	// capacities of the reference server
	assert.Equal(1000, cfg.Market.MaxClients)
	assert.Equal(10000, cfg.Market.MaxSupplies)
	assert.Equal(10000, cfg.Market.MaxDemands)
	assert.Equal(1000, cfg.Market.MaxWatches)
	assert.Equal(1000, cfg.Market.NotificationCapacity)
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateBasic())

	// tamper with the demand table
	cfg.Market.MaxDemands = 0
	err := cfg.ValidateBasic()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[market]")
}

func TestBaseConfigValidateBasic(t *testing.T) {
	cfg := TestBaseConfig()
	assert.NoError(t, cfg.ValidateBasic())

	// tamper with log format
	cfg.LogFormat = "invalid"
	assert.Error(t, cfg.ValidateBasic())
}

func TestServerConfigValidateBasic(t *testing.T) {
	cfg := TestServerConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.MaxOpenConnections = -1
	assert.Error(t, cfg.ValidateBasic())

	cfg = TestServerConfig()
	cfg.ListenAddress = ""
	assert.Error(t, cfg.ValidateBasic())
}

func TestMarketConfigValidateBasic(t *testing.T) {
	cfg := TestMarketConfig()
	assert.NoError(t, cfg.ValidateBasic())

	tamper := map[string]func(*MarketConfig){
		"Width":                func(c *MarketConfig) { c.Width = -1 },
		"Height":               func(c *MarketConfig) { c.Height = -1 },
		"MaxClients":           func(c *MarketConfig) { c.MaxClients = 0 },
		"MaxSupplies":          func(c *MarketConfig) { c.MaxSupplies = -3 },
		"MaxDemands":           func(c *MarketConfig) { c.MaxDemands = 0 },
		"MaxWatches":           func(c *MarketConfig) { c.MaxWatches = 0 },
		"NotificationCapacity": func(c *MarketConfig) { c.NotificationCapacity = 0 },
	}
	for name, fn := range tamper {
		fn := fn
		t.Run(name, func(t *testing.T) {
			cfg := TestMarketConfig()
			fn(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestInstrumentationConfigValidateBasic(t *testing.T) {
	cfg := TestInstrumentationConfig()
	assert.NoError(t, cfg.ValidateBasic())

	// tamper with maximum open connections
	cfg.MaxOpenConnections = -1
	assert.Error(t, cfg.ValidateBasic())
}
