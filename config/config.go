package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// DefaultLogLevel defines a default log level as INFO.
	DefaultLogLevel = "info"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
var (
	DefaultSupdemDir = ".supdem"

	defaultConfigDir      = "config"
	defaultConfigFileName = "config.toml"
	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for a supdem server
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Server          *ServerConfig          `mapstructure:"server"`
	Market          *MarketConfig          `mapstructure:"market"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a supdem server
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Server:          DefaultServerConfig(),
		Market:          DefaultMarketConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Server:          TestServerConfig(),
		Market:          TestMarketConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Server.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [server] section: %w", err)
	}
	if err := cfg.Market.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [market] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a supdem server
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`
}

// DefaultBaseConfig returns a default base configuration for a supdem server
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		LogLevel:  DefaultLogLevel,
		LogFormat: LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing a supdem server
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.LogLevel = "debug"
	return cfg
}

// ConfigFile returns the full path to the config.toml file
func (cfg BaseConfig) ConfigFile() string {
	return rootify(defaultConfigFilePath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain' or 'json')")
	}
	return nil
}

//-----------------------------------------------------------------------------
// ServerConfig

// ServerConfig defines the configuration for the client-facing listener.
type ServerConfig struct {
	// TCP address ("host:port") or UNIX socket ("@path") to listen on.
	ListenAddress string `mapstructure:"laddr"`

	// Maximum number of simultaneous connections.
	// Connections past the limit wait in the accept backlog.
	// 0 - unlimited.
	MaxOpenConnections int `mapstructure:"max_open_connections"`
}

// DefaultServerConfig returns a default configuration for the listener.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddress:      "127.0.0.1:26700",
		MaxOpenConnections: 0,
	}
}

// TestServerConfig returns a configuration for testing the listener.
func TestServerConfig() *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *ServerConfig) ValidateBasic() error {
	if cfg.ListenAddress == "" {
		return errors.New("laddr can't be empty")
	}
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// MarketConfig

// MarketConfig defines the size of the marketplace.
type MarketConfig struct {
	// Grid size. Reported at startup, positions are not checked against it.
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`

	// Table capacities. Inserts into a full table are dropped.
	MaxClients  int `mapstructure:"max_clients"`
	MaxSupplies int `mapstructure:"max_supplies"`
	MaxDemands  int `mapstructure:"max_demands"`
	MaxWatches  int `mapstructure:"max_watches"`

	// Number of undelivered notifications kept per client. Further
	// notifications are dropped until the client catches up.
	NotificationCapacity int `mapstructure:"notification_capacity"`
}

// DefaultMarketConfig returns the default marketplace limits.
func DefaultMarketConfig() *MarketConfig {
	return &MarketConfig{
		Width:                100,
		Height:               100,
		MaxClients:           1000,
		MaxSupplies:          10000,
		MaxDemands:           10000,
		MaxWatches:           1000,
		NotificationCapacity: 1000,
	}
}

// TestMarketConfig returns small marketplace limits for testing.
func TestMarketConfig() *MarketConfig {
	return &MarketConfig{
		Width:                10,
		Height:               10,
		MaxClients:           16,
		MaxSupplies:          64,
		MaxDemands:           64,
		MaxWatches:           16,
		NotificationCapacity: 64,
	}
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *MarketConfig) ValidateBasic() error {
	if cfg.Width < 0 {
		return errors.New("width can't be negative")
	}
	if cfg.Height < 0 {
		return errors.New("height can't be negative")
	}
	if cfg.MaxClients <= 0 {
		return errors.New("max_clients must be positive")
	}
	if cfg.MaxSupplies <= 0 {
		return errors.New("max_supplies must be positive")
	}
	if cfg.MaxDemands <= 0 {
		return errors.New("max_demands must be positive")
	}
	if cfg.MaxWatches <= 0 {
		return errors.New("max_watches must be positive")
	}
	if cfg.NotificationCapacity <= 0 {
		return errors.New("notification_capacity must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	// Check out the documentation for the list of available metrics.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Maximum number of simultaneous connections.
	// If you want to accept a larger number than the default, make sure
	// you increase your OS limits.
	// 0 - unlimited.
	MaxOpenConnections int `mapstructure:"max_open_connections"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26760",
		MaxOpenConnections:   3,
		Namespace:            "supdem",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
