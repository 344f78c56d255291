package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ensureFiles(t *testing.T, rootDir string, files ...string) {
	for _, f := range files {
		p := rootify(f, rootDir)
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestEnsureRoot(t *testing.T) {
	require := require.New(t)

	// setup temp dir for test
	tmpDir := t.TempDir()

	// create root dir
	require.NoError(EnsureRoot(tmpDir))
	require.NoError(WriteConfigFile(tmpDir, DefaultConfig()))

	// make sure config is set properly
	data, err := os.ReadFile(filepath.Join(tmpDir, defaultConfigFilePath))
	require.NoError(err)

	checkConfig(t, string(data))

	ensureFiles(t, tmpDir, "config")
}

func TestEnsureTestRoot(t *testing.T) {
	require := require.New(t)

	// create root dir
	cfg, err := ResetTestRoot(t.TempDir(), "ensureTestRoot")
	require.NoError(err)
	rootDir := cfg.RootDir

	// make sure config is set properly
	data, err := os.ReadFile(filepath.Join(rootDir, defaultConfigFilePath))
	require.NoError(err)

	checkConfig(t, string(data))

	ensureFiles(t, rootDir, defaultConfigFilePath)
}

func TestWriteDefaultConfigFileIfNoneKeepsExisting(t *testing.T) {
	rootDir := t.TempDir()
	require.NoError(t, EnsureRoot(rootDir))

	cfg := DefaultConfig()
	cfg.Market.Width = 7
	require.NoError(t, WriteConfigFile(rootDir, cfg))
	require.NoError(t, WriteDefaultConfigFileIfNone(rootDir))

	var decoded map[string]interface{}
	_, err := toml.DecodeFile(filepath.Join(rootDir, defaultConfigFilePath), &decoded)
	require.NoError(t, err)
	market := decoded["market"].(map[string]interface{})
	assert.EqualValues(t, 7, market["width"])
}

// The rendered template must parse as TOML and carry every value of the
// config it was rendered from.
func TestConfigTemplateRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFormat = LogFormatJSON
	cfg.Server.ListenAddress = "@/tmp/supdem.sock"
	cfg.Server.MaxOpenConnections = 42
	cfg.Market.MaxWatches = 5
	cfg.Instrumentation.Prometheus = true

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.WriteToTemplate(path))

	var decoded struct {
		LogLevel  string `toml:"log_level"`
		LogFormat string `toml:"log_format"`
		Server    struct {
			ListenAddress      string `toml:"laddr"`
			MaxOpenConnections int    `toml:"max_open_connections"`
		} `toml:"server"`
		Market struct {
			Width                int `toml:"width"`
			Height               int `toml:"height"`
			MaxClients           int `toml:"max_clients"`
			MaxSupplies          int `toml:"max_supplies"`
			MaxDemands           int `toml:"max_demands"`
			MaxWatches           int `toml:"max_watches"`
			NotificationCapacity int `toml:"notification_capacity"`
		} `toml:"market"`
		Instrumentation struct {
			Prometheus           bool   `toml:"prometheus"`
			PrometheusListenAddr string `toml:"prometheus_listen_addr"`
			MaxOpenConnections   int    `toml:"max_open_connections"`
			Namespace            string `toml:"namespace"`
		} `toml:"instrumentation"`
	}
	md, err := toml.DecodeFile(path, &decoded)
	require.NoError(t, err)
	assert.Empty(t, md.Undecoded())

	assert.Equal(t, cfg.LogLevel, decoded.LogLevel)
	assert.Equal(t, LogFormatJSON, decoded.LogFormat)
	assert.Equal(t, "@/tmp/supdem.sock", decoded.Server.ListenAddress)
	assert.Equal(t, 42, decoded.Server.MaxOpenConnections)
	assert.Equal(t, cfg.Market.Width, decoded.Market.Width)
	assert.Equal(t, cfg.Market.Height, decoded.Market.Height)
	assert.Equal(t, cfg.Market.MaxClients, decoded.Market.MaxClients)
	assert.Equal(t, cfg.Market.MaxSupplies, decoded.Market.MaxSupplies)
	assert.Equal(t, cfg.Market.MaxDemands, decoded.Market.MaxDemands)
	assert.Equal(t, 5, decoded.Market.MaxWatches)
	assert.Equal(t, cfg.Market.NotificationCapacity, decoded.Market.NotificationCapacity)
	assert.True(t, decoded.Instrumentation.Prometheus)
	assert.Equal(t, cfg.Instrumentation.PrometheusListenAddr, decoded.Instrumentation.PrometheusListenAddr)
	assert.Equal(t, cfg.Instrumentation.MaxOpenConnections, decoded.Instrumentation.MaxOpenConnections)
	assert.Equal(t, "supdem", decoded.Instrumentation.Namespace)
}

func checkConfig(t *testing.T, configFile string) {
	t.Helper()

	// list of words we expect in the config
	var elems = []string{
		"log_level",
		"log_format",
		"laddr",
		"max_open_connections",
		"max_clients",
		"max_supplies",
		"max_demands",
		"max_watches",
		"notification_capacity",
		"prometheus",
		"prometheus_listen_addr",
		"namespace",
	}
	for _, e := range elems {
		if !strings.Contains(configFile, e) {
			t.Errorf("config file was expected to contain %s but did not", e)
		}
	}
}
