package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	AppName        = "BaroBaro"
	ConfigFileName = AppName + ".toml"
	EnvPrefix      = "BAROBARO"

	// BarotraumaAppID is the Steam app id of the game.
	BarotraumaAppID = 602960

	DefaultSteamAPIEndpoint   = "https://api.steampowered.com/ISteamRemoteStorage/GetPublishedFileDetails/v1/"
	DefaultUserAgent          = "baro-mod-manager/dev"
	DefaultBatchSize          = 100
	DefaultHTTPTimeoutSeconds = 30
	DefaultMaxRetries         = 3
	DefaultLogLevel           = "info"
	DefaultLogFile            = "baro-mod-manager.log"
	DefaultAPILogFile         = "steam-api.log"
	DefaultDatabaseName       = "hashes.db"
)

// Viper keys. They double as TOML keys and, upper-cased with the
// BAROBARO_ prefix, as environment variable names.
const (
	KeyGameHome           = "game_home"
	KeyLogLevel           = "loglevel"
	KeyLogFile            = "log_file"
	KeySteamAPIEndpoint   = "steam_api_endpoint"
	KeyUserAgent          = "user_agent"
	KeyBatchSize          = "batch_size"
	KeyHTTPTimeoutSeconds = "http_timeout_seconds"
	KeyMaxRetries         = "max_retries"
	KeyHashWorkers        = "hash_workers"
	KeyLogAPIRequests     = "log_api_requests"
	KeyAPILogFile         = "api_log_file"
	KeyDatabasePath       = "database_path"
)

var (
	ErrGameHomeNotSet = errors.New("game_home is not set")
	ErrConfigExists   = errors.New("config file already exists")
)

// Config holds all configuration for the application.
// Values are loaded by Viper from a TOML file and/or environment variables.
type Config struct {
	GameHome           string `mapstructure:"game_home" toml:"game_home"`
	LogLevel           string `mapstructure:"loglevel" toml:"loglevel"`
	LogFile            string `mapstructure:"log_file" toml:"log_file"`
	SteamAPIEndpoint   string `mapstructure:"steam_api_endpoint" toml:"steam_api_endpoint"`
	UserAgent          string `mapstructure:"user_agent" toml:"user_agent"`
	BatchSize          int    `mapstructure:"batch_size" toml:"batch_size"` // 0 sends every id in one request
	HTTPTimeoutSeconds int    `mapstructure:"http_timeout_seconds" toml:"http_timeout_seconds"`
	MaxRetries         int    `mapstructure:"max_retries" toml:"max_retries"`
	HashWorkers        int    `mapstructure:"hash_workers" toml:"hash_workers"`
	LogAPIRequests     bool   `mapstructure:"log_api_requests" toml:"log_api_requests"`
	APILogFile         string `mapstructure:"api_log_file" toml:"api_log_file"`
	DatabasePath       string `mapstructure:"database_path" toml:"database_path"`
}

// HTTPTimeout returns the per-request timeout for the Steam client.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// DefaultDir is the per-user directory holding the config file and the
// hash database.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Defaults returns a Config with every default applied and no game home.
func Defaults() Config {
	cfg := Config{
		LogLevel:           DefaultLogLevel,
		LogFile:            DefaultLogFile,
		SteamAPIEndpoint:   DefaultSteamAPIEndpoint,
		UserAgent:          DefaultUserAgent,
		BatchSize:          DefaultBatchSize,
		HTTPTimeoutSeconds: DefaultHTTPTimeoutSeconds,
		MaxRetries:         DefaultMaxRetries,
		APILogFile:         DefaultAPILogFile,
	}
	processConfigDefaults(&cfg)
	return cfg
}

func setDefaults() {
	viper.SetDefault(KeyGameHome, "")
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
	viper.SetDefault(KeyLogFile, DefaultLogFile)
	viper.SetDefault(KeySteamAPIEndpoint, DefaultSteamAPIEndpoint)
	viper.SetDefault(KeyUserAgent, DefaultUserAgent)
	viper.SetDefault(KeyBatchSize, DefaultBatchSize)
	viper.SetDefault(KeyHTTPTimeoutSeconds, DefaultHTTPTimeoutSeconds)
	viper.SetDefault(KeyMaxRetries, DefaultMaxRetries)
	viper.SetDefault(KeyHashWorkers, 0)
	viper.SetDefault(KeyLogAPIRequests, false)
	viper.SetDefault(KeyAPILogFile, DefaultAPILogFile)
	viper.SetDefault(KeyDatabasePath, "")
}

// LoadConfig reads configuration from a TOML file and environment variables.
// An empty configFile searches the working directory and DefaultDir for
// BaroBaro.toml; a missing file there is not an error.
func LoadConfig(configFile string) (Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(AppName)
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if dir, err := DefaultDir(); err == nil {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		slog.Debug("Config file not found, relying on defaults and environment variables.")
	} else if err != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", err)
	}
	processConfigDefaults(&cfg)
	return cfg, nil
}

// processConfigDefaults fills values that have no static default or that
// were set to something unusable.
func processConfigDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.SteamAPIEndpoint == "" {
		cfg.SteamAPIEndpoint = DefaultSteamAPIEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
		slog.Warn("user_agent not set in config or environment, using default.")
	}
	if cfg.BatchSize < 0 {
		slog.Warn("Negative batch_size, sending all ids in one request", "batch_size", cfg.BatchSize)
		cfg.BatchSize = 0
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		cfg.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.HashWorkers <= 0 {
		cfg.HashWorkers = runtime.GOMAXPROCS(0)
	}
	if cfg.APILogFile == "" {
		cfg.APILogFile = DefaultAPILogFile
	}
	if cfg.DatabasePath == "" {
		if dir, err := DefaultDir(); err == nil {
			cfg.DatabasePath = filepath.Join(dir, DefaultDatabaseName)
		} else {
			cfg.DatabasePath = DefaultDatabaseName
		}
	}
}

// Validate checks the settings commands touching the game install rely on
// and creates the database directory.
func (c *Config) Validate() error {
	return validateAndEnsureDirectories(c)
}

func validateAndEnsureDirectories(cfg *Config) error {
	if cfg.GameHome == "" {
		slog.Error("game_home is not set")
		return ErrGameHomeNotSet
	}
	info, err := os.Stat(cfg.GameHome)
	if err != nil {
		return fmt.Errorf("check game_home %s: %w", cfg.GameHome, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("game_home %s is not a directory", cfg.GameHome)
	}

	dbDir := filepath.Dir(cfg.DatabasePath)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		slog.Info("Database directory does not exist, creating it", "path", dbDir)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return fmt.Errorf("create database directory %s: %w", dbDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("check database directory %s: %w", dbDir, err)
	}
	return nil
}

// WriteDefault writes cfg as TOML to path. It refuses to replace an
// existing file.
func WriteDefault(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
