// Package iotesting provides shared test utilities: configuration for
// integration tests and a small fixture dataset loaded into every store
// backend.
package iotesting

import (
	"os"
	"strconv"
	"testing"

	"github.com/gnames/gnotu/pkg/config"
)

const (
	// TestDatabaseName is the database name used for all integration tests.
	// This ensures tests never accidentally run against production databases.
	TestDatabaseName = "gnotu_test"
)

// GetTestConfig returns a configuration suitable for integration tests.
// Database connection settings can be changed with the usual GNOTU_
// environment variables, the database name is always TestDatabaseName.
//
// Usage in integration tests:
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("Skipping integration test")
//	    }
//	    cfg := iotesting.GetTestConfig(t)
//	    // ... use cfg for database operations
//	}
func GetTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()

	var opts []config.Option
	if s := os.Getenv("GNOTU_DATABASE_HOST"); s != "" {
		opts = append(opts, config.OptDatabaseHost(s))
	}
	if s := os.Getenv("GNOTU_DATABASE_PORT"); s != "" {
		if i, err := strconv.Atoi(s); err == nil {
			opts = append(opts, config.OptDatabasePort(i))
		}
	}
	if s := os.Getenv("GNOTU_DATABASE_USER"); s != "" {
		opts = append(opts, config.OptDatabaseUser(s))
	}
	if s := os.Getenv("GNOTU_DATABASE_PASSWORD"); s != "" {
		opts = append(opts, config.OptDatabasePassword(s))
	}
	opts = append(opts,
		config.OptDatabaseDatabase(TestDatabaseName),
		config.OptHomeDir(t.TempDir()),
		config.OptLogDestination("stderr"),
	)
	cfg.Update(opts)
	return cfg
}
