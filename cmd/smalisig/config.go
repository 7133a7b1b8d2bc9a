package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// configFileName is looked up at the repository root when --config is unset.
const configFileName = ".smalisig.toml"

// Config mirrors the global flags. Values set on the command line win.
type Config struct {
	DB        string   `toml:"db"`
	Format    string   `toml:"format"`
	RawDollar bool     `toml:"raw_dollar"`
	Verbose   bool     `toml:"verbose"`
	Exclude   []string `toml:"exclude"`
}

// loadConfig reads a TOML config file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfigFile loads the config file for the current directory's repo
// and merges it into the flag variables. A missing default file is not an
// error; a missing --config file is.
func applyConfigFile(cmd *cobra.Command) error {
	path := flagConfig
	explicit := path != ""
	if !explicit {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}
		path = filepath.Join(findRepoRoot(cwd), configFileName)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	verbose := flagVerbose
	applyConfig(cfg, cmd.Flags().Changed)
	if flagVerbose != verbose {
		logger = newLogger(stderr, flagVerbose)
	}
	logger.Debug("loaded config", "path", path)
	return nil
}

// applyConfig copies config values into flags the user did not set.
func applyConfig(cfg *Config, changed func(name string) bool) {
	if cfg.DB != "" && !changed("db") {
		flagDB = cfg.DB
	}
	if cfg.Format != "" && !changed("format") {
		flagFormat = cfg.Format
	}
	if cfg.RawDollar && !changed("raw-dollar") {
		flagRawDollar = true
	}
	if cfg.Verbose && !changed("verbose") {
		flagVerbose = true
	}
	cfgExclude = cfg.Exclude
}
