// Package config provides configuration management for gnotu.
//
// This package has no I/O dependencies (no file operations, no network
// calls). Validation functions may write user-facing warnings via
// gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml >
// defaults
//
// # Design Principles
//
//   - Default config (from New()) is always valid
//   - All mutations go through Option functions
//   - Invalid options are rejected with gn.Warn(), config stays valid
//   - ToOptions() converts persistent fields (those in config.yaml)
//   - Environment variables match ToOptions() fields exactly
//
// # Environment Variables
//
// Use GNOTU_ prefix with underscores for nesting:
//
//	GNOTU_DATABASE_HOST=localhost
//	GNOTU_STORE_BACKEND=sqlite
//	GNOTU_CACHE_BACKEND=sqlite
//	GNOTU_LOG_LEVEL=info
//	GNOTU_JOBS_NUMBER=8
package config

import (
	"runtime"
)

// Config represents the complete gnotu configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Store selects where portal data is read from.
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Cache selects where query results are memoized.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber limits concurrent queries of a single command.
	// Default value is set according to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// FieldsFile is the path to the contextual field registry. Empty
	// means fields.yaml in the config directory.
	FieldsFile string `mapstructure:"fields_file" yaml:"fields_file"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
}

// StoreConfig selects the data backend.
type StoreConfig struct {
	// Backend is "postgres" or "sqlite".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// SQLitePath is the database file of the sqlite backend. Empty means
	// gnotu.db in the cache directory.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	// Backend is "sqlite" (shared between processes), "memory" or
	// "none".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the cache file of the sqlite backend. Empty means
	// results.db in the cache directory.
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "bpaotu",
			SSLMode:  "disable",
		},
		Store: StoreConfig{
			Backend: "postgres",
		},
		Cache: CacheConfig{
			Backend: "sqlite",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(), // Default to number of CPU threads
	}
	return res
}
