package config

import (
	"log"
	"strconv"
	"time"

	"beacon/internal/utils"
)

const (
	EnvPort            = "BEACON_PORT"
	EnvSiteName        = "BEACON_SITE_NAME"
	EnvRootURLPath     = "BEACON_ROOT_URL_PATH"
	EnvAuthFile        = "BEACON_AUTH_FILE"
	EnvDataFile        = "BEACON_DATA_FILE"
	EnvEventLogDir     = "BEACON_LOG_DIR"
	EnvRetentionDays   = "BEACON_RETENTION_DAYS"
	EnvPurgeInterval   = "BEACON_PURGE_INTERVAL"
	EnvValidatePostIDs = "BEACON_VALIDATE_POST_IDS"
)

func parseEnv(cfg *Config) {
	cfg.Port = utils.GetEnv(EnvPort, cfg.Port)
	cfg.SiteName = utils.GetEnv(EnvSiteName, cfg.SiteName)
	cfg.RootURLPath = utils.GetEnv(EnvRootURLPath, cfg.RootURLPath)
	cfg.AuthFile = utils.GetEnv(EnvAuthFile, cfg.AuthFile)
	cfg.DataFile = utils.GetEnv(EnvDataFile, cfg.DataFile)
	cfg.EventLogDir = utils.GetEnv(EnvEventLogDir, cfg.EventLogDir)

	if v := utils.GetEnv(EnvRetentionDays, ""); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.RetentionDays = days
		} else {
			log.Printf("Warning: ignoring invalid %s=%q: %v", EnvRetentionDays, v, err)
		}
	}
	if v := utils.GetEnv(EnvPurgeInterval, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PurgeInterval = d
		} else {
			log.Printf("Warning: ignoring invalid %s=%q: %v", EnvPurgeInterval, v, err)
		}
	}
	if v := utils.GetEnv(EnvValidatePostIDs, ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ValidatePostIDs = b
		} else {
			log.Printf("Warning: ignoring invalid %s=%q: %v", EnvValidatePostIDs, v, err)
		}
	}
}
