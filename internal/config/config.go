// Package config assembles runtime settings from defaults, an optional JSON
// config file (-c flag) and environment overrides, in that order.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"beacon/internal/constants"
)

// Config holds runtime settings for the analytics server.
type Config struct {
	Port            string
	SiteName        string
	RootURLPath     string
	AuthFile        string
	DataFile        string
	EventLogDir     string
	RetentionDays   int
	PurgeInterval   time.Duration
	ValidatePostIDs bool
}

// LoadDefaults populates the config with production defaults.
func (c *Config) LoadDefaults() {
	c.Port = constants.DefaultPort
	c.SiteName = constants.DefaultSiteName
	c.RootURLPath = constants.DefaultRootURLPath
	c.AuthFile = constants.DefaultAuthFile
	c.DataFile = constants.DefaultDataFile
	c.EventLogDir = ""
	c.RetentionDays = constants.DefaultRetentionDays
	c.PurgeInterval = constants.DefaultPurgeInterval
	c.ValidatePostIDs = true
}

// Load builds the config from args (typically os.Args[1:]): defaults first,
// then the JSON file named by -c if any, then environment variables.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("beacon", flag.ContinueOnError)
	configPath := fs.String("c", "", "path to the JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := parseJSON(cfg, *configPath); err != nil {
			return nil, err
		}
	}

	parseEnv(cfg)

	if !strings.HasSuffix(cfg.RootURLPath, "/") {
		cfg.RootURLPath += "/"
	}
	if cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention window must be positive, got %d days", cfg.RetentionDays)
	}
	if cfg.PurgeInterval <= 0 {
		return nil, fmt.Errorf("purge interval must be positive, got %s", cfg.PurgeInterval)
	}

	return cfg, nil
}

// RetentionWindow returns the rolling span of visits kept queryable.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
