package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "gnotu"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/gnotu by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/gnotu by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/gnotu/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/gnotu/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// FieldsFilePath returns the path to the field registry.
func (c *Config) FieldsFilePath() string {
	if c.FieldsFile != "" {
		return c.FieldsFile
	}
	return filepath.Join(ConfigDir(c.HomeDir), "fields.yaml")
}

// SQLitePath returns the database file of the sqlite store.
func (c *Config) SQLitePath() string {
	if c.Store.SQLitePath != "" {
		return c.Store.SQLitePath
	}
	return filepath.Join(CacheDir(c.HomeDir), "gnotu.db")
}

// CachePath returns the file of the sqlite result cache.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(c.HomeDir), "results.db")
}
