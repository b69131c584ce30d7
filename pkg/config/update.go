package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes the runtime-only HomeDir.
func (c *Config) ToOptions() []Option {
	var res []Option
	addStr := func(s string, opt func(string) Option) {
		if s != "" {
			res = append(res, opt(s))
		}
	}
	addInt := func(i int, opt func(int) Option) {
		if i > 0 {
			res = append(res, opt(i))
		}
	}

	addStr(c.Database.Host, OptDatabaseHost)
	addInt(c.Database.Port, OptDatabasePort)
	addStr(c.Database.User, OptDatabaseUser)
	addStr(c.Database.Password, OptDatabasePassword)
	addStr(c.Database.Database, OptDatabaseDatabase)
	addStr(c.Database.SSLMode, OptDatabaseSSLMode)

	addStr(c.Store.Backend, OptStoreBackend)
	addStr(c.Store.SQLitePath, OptStoreSQLitePath)
	addStr(c.Cache.Backend, OptCacheBackend)
	addStr(c.Cache.Path, OptCachePath)

	addStr(c.Log.Format, OptLogFormat)
	addStr(c.Log.Level, OptLogLevel)
	addStr(c.Log.Destination, OptLogDestination)

	addInt(c.JobsNumber, OptJobsNumber)
	addStr(c.FieldsFile, OptFieldsFile)
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

var enums = map[string]map[string]struct{}{
	"Database.SSLMode": {"disable": {}, "require": {},
		"verify-ca": {}, "verify-full": {}},
	"Store.Backend":   {"postgres": {}, "sqlite": {}},
	"Cache.Backend":   {"sqlite": {}, "memory": {}, "none": {}},
	"Log.Level":       {"debug": {}, "info": {}, "warn": {}, "error": {}},
	"Log.Format":      {"json": {}, "text": {}, "tint": {}},
	"Log.Destination": {"file": {}, "stderr": {}, "stdout": {}},
}

func isValidEnum(name, val string) bool {
	if _, ok := enums[name][val]; ok {
		return true
	}
	vals := slices.Sorted(maps.Keys(enums[name]))
	var lines []string
	for _, v := range vals {
		lines = append(lines, fmt.Sprintf("  * %s", v))
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
