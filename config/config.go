package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
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
// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultFastSyncDir = ".fastsync"
	defaultConfigDir   = "config"
	defaultDataDir     = "data"

	defaultConfigFileName = "config.toml"

	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for a fast sync node
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	FastSync        *FastSyncConfig        `mapstructure:"fastsync"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a fast sync node
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		FastSync:        DefaultFastSyncConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		FastSync:        TestFastSyncConfig(),
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
	if err := cfg.FastSync.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [fastsync] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a fast sync node
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
	DBBackend string `mapstructure:"db-backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`
}

// DefaultBaseConfig returns a default base configuration for a fast sync node
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		LogLevel:  DefaultLogLevel,
		LogFormat: LogFormatPlain,
		DBBackend: "goleveldb",
		DBPath:    "data",
	}
}

// TestBaseConfig returns a base configuration for testing a fast sync node
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatJSON, LogFormatPlain:
	default:
		return errors.New("unknown log format (must be 'plain' or 'json')")
	}
	return nil
}

//-----------------------------------------------------------------------------
// FastSyncConfig

// DefaultKnownBlocksCapacity is the number of block hashes remembered per peer.
const DefaultKnownBlocksCapacity = 1024

// FastSyncConfig defines the configuration for the fast sync engine
type FastSyncConfig struct {
	// Hex-encoded hash of the genesis block. Part of the state request
	// protocol name.
	GenesisHash string `mapstructure:"genesis-hash"`

	// Optional fork id, inserted into the protocol name when set.
	ForkID string `mapstructure:"fork-id"`

	// Number of block hashes remembered per connected peer.
	KnownBlocksCapacity int `mapstructure:"known-blocks-capacity"`

	// Number of control commands that can be queued before callers block.
	CommandBufferSize int `mapstructure:"command-buffer-size"`
}

// DefaultFastSyncConfig returns a default configuration for the fast sync engine
func DefaultFastSyncConfig() *FastSyncConfig {
	return &FastSyncConfig{
		KnownBlocksCapacity: DefaultKnownBlocksCapacity,
		CommandBufferSize:   1000,
	}
}

// TestFastSyncConfig returns a configuration for testing the fast sync engine
func TestFastSyncConfig() *FastSyncConfig {
	cfg := DefaultFastSyncConfig()
	cfg.GenesisHash = strings.Repeat("ab", 32)
	cfg.KnownBlocksCapacity = 16
	cfg.CommandBufferSize = 8
	return cfg
}

// GenesisHashBytes decodes GenesisHash. An optional 0x prefix is accepted.
func (cfg *FastSyncConfig) GenesisHashBytes() ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(cfg.GenesisHash, "0x"), "0X")
	bz, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis-hash: %w", err)
	}
	return bz, nil
}

// ValidateBasic performs basic validation.
func (cfg *FastSyncConfig) ValidateBasic() error {
	if cfg.GenesisHash == "" {
		return errors.New("genesis-hash can't be empty")
	}
	if _, err := cfg.GenesisHashBytes(); err != nil {
		return err
	}
	if strings.Contains(cfg.ForkID, "/") {
		return errors.New("fork-id can't contain '/'")
	}
	if cfg.KnownBlocksCapacity <= 0 {
		return errors.New("known-blocks-capacity must be positive")
	}
	if cfg.CommandBufferSize < 0 {
		return errors.New("command-buffer-size can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are collected for the fast sync engine.
	Prometheus bool `mapstructure:"prometheus"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus: false,
		Namespace:  "fastsync",
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
	if cfg.Prometheus && cfg.Namespace == "" {
		return errors.New("namespace can't be empty when prometheus is enabled")
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
