package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig is the on-disk shape of the config file. Field names match the
// original deployment format; all fields are optional and only set values
// override the defaults.
type jsonConfig struct {
	Port            *string `json:"port"`
	SiteName        *string `json:"siteName"`
	RootURLPath     *string `json:"rootUrlPath"`
	AuthFile        *string `json:"auth"`
	DataFile        *string `json:"dataFile"`
	EventLogDir     *string `json:"logDir"`
	RetentionDays   *int    `json:"retentionDays"`
	PurgeInterval   *string `json:"purgeInterval"` // Go duration string, e.g. "24h"
	ValidatePostIDs *bool   `json:"validatePostIds"`
}

func parseJSON(cfg *Config, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(buf, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if jc.Port != nil {
		cfg.Port = *jc.Port
	}
	if jc.SiteName != nil {
		cfg.SiteName = *jc.SiteName
	}
	if jc.RootURLPath != nil {
		cfg.RootURLPath = *jc.RootURLPath
	}
	if jc.AuthFile != nil {
		cfg.AuthFile = *jc.AuthFile
	}
	if jc.DataFile != nil {
		cfg.DataFile = *jc.DataFile
	}
	if jc.EventLogDir != nil {
		cfg.EventLogDir = *jc.EventLogDir
	}
	if jc.RetentionDays != nil {
		cfg.RetentionDays = *jc.RetentionDays
	}
	if jc.PurgeInterval != nil {
		d, err := time.ParseDuration(*jc.PurgeInterval)
		if err != nil {
			return fmt.Errorf("invalid purgeInterval in %s: %w", path, err)
		}
		cfg.PurgeInterval = d
	}
	if jc.ValidatePostIDs != nil {
		cfg.ValidatePostIDs = *jc.ValidatePostIDs
	}

	return nil
}
