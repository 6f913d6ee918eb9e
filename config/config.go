package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"primechain/logger"

	"github.com/spf13/viper"
)

// Config struct holds all configuration for the application.
// Tags are used by viper to map ENV variables and config file keys.
type Config struct {
	// Node configuration
	DataDir   string `mapstructure:"datadir"`
	RPCPort   int    `mapstructure:"rpcport"`
	RPCAddr   string `mapstructure:"rpcaddr"`
	EnableRPC bool   `mapstructure:"enable_rpc"`

	// Mining configuration
	Mining         bool          `mapstructure:"mining"`
	MiningInterval time.Duration `mapstructure:"mining_interval"` // jeda antar blok pada loop miner
	Blocks         int           `mapstructure:"blocks"`          // jumlah blok untuk perintah mine, 0 = tanpa batas

	// Proof of work configuration
	Rounds        int           `mapstructure:"rounds"`          // ronde Miller-Rabin
	MaxNonceWidth int           `mapstructure:"max_nonce_width"` // byte, 0 = tanpa batas (maks 32)
	MiningTimeout time.Duration `mapstructure:"mining_timeout"`  // 0 = tanpa batas waktu per blok
	Workers       int           `mapstructure:"workers"`         // goroutine pencarian nonce, 1 = sekuensial
	ChunkSize     uint64        `mapstructure:"chunk_size"`      // nonce per chunk untuk pencarian paralel

	// Chain configuration
	InitialPayloadLen int    `mapstructure:"initial_payload_len"` // panjang awal payload 'a...'
	GenesisData       string `mapstructure:"genesis_data"`        // hex, kosong = 0x0117

	// Database configuration
	Persist bool `mapstructure:"persist"` // simpan blok ke LevelDB di datadir/chaindata
	Cache   int  `mapstructure:"cache"`   // Cache size for LevelDB (MB)
	Handles int  `mapstructure:"handles"` // Number of open file handles for LevelDB

	// Logging configuration
	LogLevel  string `mapstructure:"log_level"` // e.g., "debug", "info", "warn", "error"
	Verbosity int    `mapstructure:"verbosity"` // Alternative to LogLevel, 0-5

	// Performance configuration
	EnableCache bool `mapstructure:"enable_cache"` // cache blok hasil lookup by hash
	CacheSize   int  `mapstructure:"cache_size"`   // Number of items for general cache

	EnableMetrics bool `mapstructure:"enable_metrics"`
}

// defaultConfig holds the unexported default configuration values.
var defaultConfig = Config{
	DataDir:           "./data_primechain",
	RPCPort:           8545,
	RPCAddr:           "127.0.0.1",
	EnableRPC:         true,
	Mining:            true,
	MiningInterval:    500 * time.Millisecond,
	Blocks:            0,
	Rounds:            100,
	MaxNonceWidth:     0,
	MiningTimeout:     0,
	Workers:           1,
	ChunkSize:         256,
	InitialPayloadLen: 200,
	GenesisData:       "",
	Persist:           false,
	Cache:             64,
	Handles:           128,
	LogLevel:          "info",
	Verbosity:         3,
	EnableCache:       true,
	CacheSize:         1024,
	EnableMetrics:     true,
}

// DefaultConfig is an exported version of defaultConfig, allowing other packages
// to access the default values, for example, when setting up CLI flags.
var DefaultConfig = defaultConfig

// LoadConfig loads configuration from file, environment variables, and flags.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom sama dengan LoadConfig tetapi memakai instance viper v.
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	// Start with a copy of the exported DefaultConfig.
	// Viper will then override these values based on file, ENV, and flags.
	currentConfig := DefaultConfig

	if err := v.Unmarshal(&currentConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config from Viper: %w", err)
	}

	logger.Debugf("Effective config: DataDir='%s', RPC=%t %s:%d, Mining=%t, Rounds=%d, MaxNonceWidth=%d, Workers=%d, Persist=%t, LogLevel='%s'",
		currentConfig.DataDir, currentConfig.EnableRPC, currentConfig.RPCAddr, currentConfig.RPCPort, currentConfig.Mining,
		currentConfig.Rounds, currentConfig.MaxNonceWidth, currentConfig.Workers, currentConfig.Persist, currentConfig.LogLevel)

	if err := validateAndCreateDirs(&currentConfig); err != nil {
		return nil, fmt.Errorf("config validation and directory creation failed: %w", err)
	}

	return &currentConfig, nil
}

func validateAndCreateDirs(config *Config) error {
	config.DataDir = strings.TrimSpace(config.DataDir)
	if config.DataDir == "" {
		return fmt.Errorf("datadir cannot be empty")
	}
	if config.Persist {
		if err := os.MkdirAll(config.GetDataSubDir("chaindata"), 0755); err != nil {
			return fmt.Errorf("failed to create data directory '%s': %w", config.DataDir, err)
		}
	}

	if config.EnableRPC && (config.RPCPort <= 0 || config.RPCPort > 65535) {
		return fmt.Errorf("invalid RPC port: %d. Must be between 1 and 65535", config.RPCPort)
	}

	if config.MaxNonceWidth < 0 || config.MaxNonceWidth > 32 {
		return fmt.Errorf("invalid max_nonce_width: %d. Must be between 0 and 32", config.MaxNonceWidth)
	}
	if config.MiningTimeout < 0 {
		return fmt.Errorf("invalid mining_timeout: %s", config.MiningTimeout)
	}
	if config.Blocks < 0 {
		return fmt.Errorf("invalid blocks: %d", config.Blocks)
	}
	if config.Rounds <= 0 {
		logger.Warningf("Rounds is invalid (%d), using default: %d", config.Rounds, DefaultConfig.Rounds)
		config.Rounds = DefaultConfig.Rounds
	}
	if config.Workers <= 0 {
		logger.Warningf("Workers is invalid (%d), using default: %d", config.Workers, DefaultConfig.Workers)
		config.Workers = DefaultConfig.Workers
	}
	if config.ChunkSize == 0 {
		config.ChunkSize = DefaultConfig.ChunkSize
	}
	if config.InitialPayloadLen < 0 {
		logger.Warningf("InitialPayloadLen is invalid (%d), using default: %d", config.InitialPayloadLen, DefaultConfig.InitialPayloadLen)
		config.InitialPayloadLen = DefaultConfig.InitialPayloadLen
	}
	if _, err := config.GetGenesisData(); err != nil {
		return err
	}
	if config.Cache <= 0 {
		logger.Warningf("LevelDB Cache size is invalid (%d MB), using default: %d MB", config.Cache, DefaultConfig.Cache)
		config.Cache = DefaultConfig.Cache
	}
	if config.Handles <= 0 {
		logger.Warningf("LevelDB Handles count is invalid (%d), using default: %d", config.Handles, DefaultConfig.Handles)
		config.Handles = DefaultConfig.Handles
	}
	if config.CacheSize <= 0 && config.EnableCache {
		logger.Warningf("General CacheSize is invalid (%d items), using default: %d items", config.CacheSize, DefaultConfig.CacheSize)
		config.CacheSize = DefaultConfig.CacheSize
	}

	return nil
}

// GetGenesisData men-decode GenesisData (hex, boleh berawalan 0x).
// Kosong berarti payload genesis default.
func (c *Config) GetGenesisData() ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimSpace(c.GenesisData), "0x")
	if s == "" {
		return nil, nil
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis_data %q: %w", c.GenesisData, err)
	}
	return data, nil
}

func (c *Config) GetLogLevel() logger.LogLevel {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "trace":
		return logger.DEBUG
	case "info":
		return logger.INFO
	case "warn", "warning":
		return logger.WARNING
	case "error":
		return logger.ERROR
	case "fatal":
		return logger.FATAL
	default:
		logger.Warningf("Unknown log_level '%s', falling back to verbosity %d", c.LogLevel, c.Verbosity)
		switch c.Verbosity {
		case 0, 1:
			return logger.ERROR
		case 2:
			return logger.WARNING
		case 3:
			return logger.INFO
		case 4, 5:
			return logger.DEBUG
		default:
			logger.Warningf("Unknown verbosity level %d, defaulting to INFO", c.Verbosity)
			return logger.INFO
		}
	}
}

func (c *Config) GetDataSubDir(subdir string) string {
	return filepath.Join(c.DataDir, subdir)
}
