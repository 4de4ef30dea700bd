// Package config assembles runtime settings from defaults, an optional YAML
// file, a .env file and the environment, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the service reads at startup.
type Config struct {
	DataDir         string        `yaml:"data_dir"`
	DBPath          string        `yaml:"db_path"`
	DBEnabled       bool          `yaml:"db_enabled"`
	DBTimeout       time.Duration `yaml:"db_timeout"`
	DBMaxOpen       int           `yaml:"db_max_open"`
	Addr            string        `yaml:"addr"`
	LogPath         string        `yaml:"log_path"`
	LogLevel        string        `yaml:"log_level"`
	QueueSize       int           `yaml:"queue_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// File names inside DataDir.
const (
	ItemsFile        = "inventory_data.json"
	ArchiveFile      = "archive_data.json"
	TransactionsFile = "transactions.json"
	SuppliersFile    = "suppliers.json"
	CategoriesFile   = "categories.json"
)

// EnvFile is the dotenv file read by Load. A missing file is not an error.
var EnvFile = ".env"

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:         "data",
		DBPath:          "stockroom.sqlite3",
		DBEnabled:       true,
		DBTimeout:       3 * time.Second,
		DBMaxOpen:       10,
		Addr:            ":8080",
		LogLevel:        "info",
		QueueSize:       256,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", EnvFile, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.DataDir = getEnv("STOCKROOM_DATA_DIR", cfg.DataDir)
	cfg.DBPath = getEnv("STOCKROOM_DB", getEnv("DB_PATH", cfg.DBPath))
	cfg.Addr = getEnv("STOCKROOM_ADDR", cfg.Addr)
	cfg.LogPath = getEnv("STOCKROOM_LOG", cfg.LogPath)
	cfg.LogLevel = getEnv("STOCKROOM_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.DBEnabled, err = envBool("STOCKROOM_DB_ENABLED", cfg.DBEnabled); err != nil {
		return err
	}
	if cfg.DBTimeout, err = envDuration("STOCKROOM_DB_TIMEOUT", cfg.DBTimeout); err != nil {
		return err
	}
	if cfg.ShutdownTimeout, err = envDuration("STOCKROOM_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.QueueSize, err = envInt("STOCKROOM_QUEUE_SIZE", cfg.QueueSize); err != nil {
		return err
	}
	if cfg.DBMaxOpen, err = envInt("STOCKROOM_DB_MAX_OPEN", cfg.DBMaxOpen); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.New("data directory is required")
	case c.DBEnabled && c.DBPath == "":
		return errors.New("database path is required when the database is enabled")
	case c.DBTimeout <= 0:
		return fmt.Errorf("database timeout must be positive, got %s", c.DBTimeout)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	case c.QueueSize <= 0:
		return fmt.Errorf("queue size must be positive, got %d", c.QueueSize)
	case c.DBMaxOpen <= 0:
		return fmt.Errorf("max open connections must be positive, got %d", c.DBMaxOpen)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// Level returns LogLevel parsed for slog. Unparseable values give INFO.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DataFile returns the path of name inside the data directory.
func (c Config) DataFile(name string) string {
	return filepath.Join(c.DataDir, name)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}
