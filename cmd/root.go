/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/internal/iofs"
	"github.com/gnames/gnotu/internal/iologger"
	app "github.com/gnames/gnotu/pkg"
	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
	reg     *fields.Registry
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: "version: " + app.Version + "\nbuild:   " + app.Build,
		Use:     "gnotu",
		Short:   "GNotu is a faceted search engine over OTU abundance data",
		Long: `GNotu searches samples of an amplicon abundance database by
taxonomy and by contextual metadata.

Commands:
  - create:   create or migrate the schema
  - optimize: recompute abundance, update statistics, clear cache
  - taxonomy: values selectable at the next taxonomic rank
  - search:   samples matching a query file
  - export:   taxon x abundance x sample rows as TSV
  - cache:    manage memoized results
  - fields:   contextual field definitions

Configuration precedence (highest to lowest):
  1. CLI flags (--store, --cache)
  2. Environment variables (GNOTU_*)
  3. Config file (~/.config/gnotu/config.yaml)
  4. Built-in defaults`,
		PersistentPreRunE: bootstrap,
		RunE:              runRoot,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "gnotu version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Flags().BoolP("version", "V", false, "version for gnotu")

	rootCmd.PersistentFlags().String("store", "",
		"data backend: postgres or sqlite")
	rootCmd.PersistentFlags().String("cache", "",
		"result cache: sqlite, memory or none")

	rootCmd.AddCommand(
		getCreateCmd(),
		getOptimizeCmd(),
		getTaxonomyCmd(),
		getSearchCmd(),
		getExportCmd(),
		getCacheCmd(),
		getFieldsCmd(),
	)
	return rootCmd
}

func bootstrap(cmd *cobra.Command, _ []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Log to file with defaults until the config is read.
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	opts = append(opts, flagOptions(cmd)...)
	opts = append(opts, config.OptHomeDir(homeDir))
	cfg.Update(opts)

	if err = iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	slog.Info("Configuration loaded", "config_file", config.ConfigFilePath(homeDir))

	if reg, err = loadRegistry(cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	return nil
}

// loadRegistry reads contextual field definitions. The default file is
// created on first run, an explicitly configured one must exist.
func loadRegistry(cfg *config.Config) (*fields.Registry, error) {
	path := cfg.FieldsFilePath()
	if cfg.FieldsFile == "" {
		if err := iofs.EnsureFieldsFile(path); err != nil {
			return nil, err
		}
	}
	res, err := fields.Load(path)
	if err != nil {
		return nil, iofs.FieldsFileError(path, err)
	}
	slog.Info("Contextual fields loaded", "path", path, "fields", len(res.Fields()))
	return res, nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	versionFlag(cmd)
	return cmd.Help()
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Env variables are bound one by one, so it is clear which are
	// allowed. They match the fields of config.ToOptions().
	v.SetEnvPrefix("GNOTU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("database.host", "GNOTU_DATABASE_HOST")
	_ = v.BindEnv("database.port", "GNOTU_DATABASE_PORT")
	_ = v.BindEnv("database.user", "GNOTU_DATABASE_USER")
	_ = v.BindEnv("database.password", "GNOTU_DATABASE_PASSWORD")
	_ = v.BindEnv("database.database", "GNOTU_DATABASE_DATABASE")
	_ = v.BindEnv("database.ssl_mode", "GNOTU_DATABASE_SSL_MODE")

	_ = v.BindEnv("store.backend", "GNOTU_STORE_BACKEND")
	_ = v.BindEnv("store.sqlite_path", "GNOTU_STORE_SQLITE_PATH")
	_ = v.BindEnv("cache.backend", "GNOTU_CACHE_BACKEND")
	_ = v.BindEnv("cache.path", "GNOTU_CACHE_PATH")

	_ = v.BindEnv("log.level", "GNOTU_LOG_LEVEL")
	_ = v.BindEnv("log.format", "GNOTU_LOG_FORMAT")
	_ = v.BindEnv("log.destination", "GNOTU_LOG_DESTINATION")

	_ = v.BindEnv("jobs_number", "GNOTU_JOBS_NUMBER")
	_ = v.BindEnv("fields_file", "GNOTU_FIELDS_FILE")

	v.AutomaticEnv()
}
