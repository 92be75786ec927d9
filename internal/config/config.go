// Package config provides unified configuration loading for penney.
// It supports loading from YAML files, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/penney/internal/adjudicate"
	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/store"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".penney"

// FileName is the configuration file inside DirName.
const FileName = "config.yaml"

// PenneyConfig contains all penney configuration settings.
type PenneyConfig struct {
	// Simulation contains defaults for the simulate command.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Store selects and configures the persistence backend.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational logging and round traces.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig configures a simulation run.
type SimulationConfig struct {
	// Rounds is the number of decks shuffled per run.
	Rounds int `json:"rounds" yaml:"rounds"`

	// Mode is the scoring mode: "points" or "cards".
	Mode string `json:"mode" yaml:"mode"`

	// Seed fixes the shuffle sequence. 0 picks a random seed per run.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// StoreConfig configures where cumulative state is persisted.
type StoreConfig struct {
	// Backend is one of "file" (default), "sqlite", "redis" or "memory".
	Backend string `json:"backend" yaml:"backend"`

	DataFile      string `json:"data_file" yaml:"data_file"`
	DeckFile      string `json:"deck_file" yaml:"deck_file"`
	WinCountsFile string `json:"win_counts_file" yaml:"win_counts_file"`

	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`

	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// Password supports ${VAR} syntax for env vars.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	DB     int    `json:"db" yaml:"db"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

// RedactedPassword returns "(set)" when a password is configured, "" otherwise.
func (c RedisConfig) RedactedPassword() string {
	if c.Password == "" {
		return ""
	}
	return "(set)"
}

// String implements fmt.Stringer to prevent accidental password logging.
func (c RedisConfig) String() string {
	return fmt.Sprintf("RedisConfig{Addr:%s, DB:%d, Prefix:%s, Password:%s}",
		c.Addr, c.DB, c.Prefix, c.RedactedPassword())
}

// LoggingConfig configures penney's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables round tracing to rounds.jsonl.
	// "trace" additionally records every pairwise adjudication.
	Level string `json:"level" yaml:"level"`
}

// Default returns a PenneyConfig with sensible defaults.
func Default() *PenneyConfig {
	return &PenneyConfig{
		Simulation: SimulationConfig{
			Rounds: constants.DefaultRounds,
			Mode:   constants.DefaultMode,
		},
		Store: StoreConfig{
			Backend:       string(store.BackendFile),
			DataFile:      constants.DefaultDataFile,
			DeckFile:      constants.DefaultDeckFile,
			WinCountsFile: constants.DefaultWinCountsFile,
			SQLitePath:    constants.DefaultSQLiteFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: constants.DefaultRedisPrefix,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.penney/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName, FileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.penney/config.yaml -> .env -> environment variables
func Load() (*PenneyConfig, error) {
	return LoadWithPath("")
}

// LoadWithPath is Load with an explicit config file. An empty path falls
// back to ~/.penney/config.yaml, which may be absent; an explicit path must
// exist.
func LoadWithPath(path string) (*PenneyConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	} else if defaultPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(defaultPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*PenneyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in the redis password
	config.Store.Redis.Password = expandEnvVars(config.Store.Redis.Password)

	return config, nil
}

// Save writes the configuration as YAML to path, creating its directory.
func Save(cfg *PenneyConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *PenneyConfig) Validate() error {
	if c.Simulation.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", c.Simulation.Rounds)
	}

	if _, err := adjudicate.ParseMode(c.Simulation.Mode); err != nil {
		return err
	}

	if c.Store.Backend != "" && !store.Backend(c.Store.Backend).Valid() {
		return fmt.Errorf("invalid store backend: %s (valid: file, sqlite, redis, memory)", c.Store.Backend)
	}

	if c.Store.Redis.DB < 0 {
		return fmt.Errorf("redis db must be non-negative, got %d", c.Store.Redis.DB)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// StoreOptions converts the store section into store.Options.
func (c *PenneyConfig) StoreOptions() store.Options {
	return store.Options{
		Backend:       store.Backend(c.Store.Backend),
		DataFile:      c.Store.DataFile,
		DeckFile:      c.Store.DeckFile,
		WinCountsFile: c.Store.WinCountsFile,
		SQLitePath:    c.Store.SQLitePath,
		RedisAddr:     c.Store.Redis.Addr,
		RedisPassword: c.Store.Redis.Password,
		RedisDB:       c.Store.Redis.DB,
		RedisPrefix:   c.Store.Redis.Prefix,
	}
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *PenneyConfig) {
	if v := os.Getenv("PENNEY_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Rounds = n
		}
	}

	if v := os.Getenv("PENNEY_MODE"); v != "" {
		config.Simulation.Mode = v
	}

	if v := os.Getenv("PENNEY_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := os.Getenv("PENNEY_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("PENNEY_DATA_FILE"); v != "" {
		config.Store.DataFile = v
	}
	if v := os.Getenv("PENNEY_DECK_FILE"); v != "" {
		config.Store.DeckFile = v
	}
	if v := os.Getenv("PENNEY_WIN_COUNTS_FILE"); v != "" {
		config.Store.WinCountsFile = v
	}
	if v := os.Getenv("PENNEY_SQLITE_PATH"); v != "" {
		config.Store.SQLitePath = v
	}

	if v := os.Getenv("PENNEY_REDIS_ADDR"); v != "" {
		config.Store.Redis.Addr = v
	}
	if v := os.Getenv("PENNEY_REDIS_PASSWORD"); v != "" {
		config.Store.Redis.Password = v
	}
	if v := os.Getenv("PENNEY_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Store.Redis.DB = n
		}
	}
	if v := os.Getenv("PENNEY_REDIS_PREFIX"); v != "" {
		config.Store.Redis.Prefix = v
	}

	if v := os.Getenv("PENNEY_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
