// Package config loads the settings shared by every pallet-labels binary.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/pallet-labels/internal/platform/observability"
	"github.com/Apurer/pallet-labels/internal/platform/spreadsheet"
	"github.com/Apurer/pallet-labels/internal/platform/sqlite"
)

// EnvPrefix prefixes environment overrides, e.g. PALLETS_STORAGE_BACKEND.
const EnvPrefix = "PALLETS"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config carries the settings for the API, worker, CLI and purger processes.
type Config struct {
	Port        string          `mapstructure:"port"`
	Environment string          `mapstructure:"environment"`
	Log         LogConfig       `mapstructure:"log"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Import      ImportConfig    `mapstructure:"import"`
	Temporal    TemporalConfig  `mapstructure:"temporal"`
	Retention   RetentionConfig `mapstructure:"retention"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type ImportConfig struct {
	// Encoding of uploaded CSV files: utf-8 or windows-1252.
	Encoding string `mapstructure:"encoding"`
}

type TemporalConfig struct {
	Address   string `mapstructure:"address"`
	Namespace string `mapstructure:"namespace"`
	Disabled  bool   `mapstructure:"disabled"`
}

type RetentionConfig struct {
	// Days a soft-deleted order is kept before the purger removes it.
	Days int `mapstructure:"days"`
}

// legacyEnv keeps the unprefixed variables used by existing deployments working.
var legacyEnv = map[string]string{
	"port":                 "PORT",
	"environment":          "ENVIRONMENT",
	"storage.postgres_dsn": "POSTGRES_DSN",
	"temporal.address":     "TEMPORAL_ADDRESS",
	"temporal.namespace":   "TEMPORAL_NAMESPACE",
	"temporal.disabled":    "TEMPORAL_DISABLED",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("environment", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.sqlite_path", sqlite.DefaultPath)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("import.encoding", spreadsheet.EncodingUTF8)
	v.SetDefault("temporal.address", client.DefaultHostPort)
	v.SetDefault("temporal.namespace", client.DefaultNamespace)
	v.SetDefault("temporal.disabled", false)
	v.SetDefault("retention.days", 30)
}

// Load reads defaults, an optional config file and PALLETS_* environment overrides, then validates.
// An empty path searches for config.yaml in the working directory and ./config.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.Storage.PostgresDSN = strings.TrimSpace(cfg.Storage.PostgresDSN)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces basic constraints.
func (c Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %q", c.Port))
	}
	if _, err := observability.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite backend"))
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres backend"))
		}
	case BackendRedis:
		if strings.TrimSpace(c.Storage.RedisAddr) == "" {
			errs = append(errs, errors.New("storage.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be one of memory, sqlite, postgres, redis, got %q", c.Storage.Backend))
	}
	switch strings.ToLower(c.Import.Encoding) {
	case spreadsheet.EncodingUTF8, spreadsheet.EncodingWindows1252:
	default:
		errs = append(errs, fmt.Errorf("import.encoding must be %s or %s", spreadsheet.EncodingUTF8, spreadsheet.EncodingWindows1252))
	}
	if c.Retention.Days <= 0 {
		errs = append(errs, errors.New("retention.days must be a positive integer"))
	}
	return errors.Join(errs...)
}
