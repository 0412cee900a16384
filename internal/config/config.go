/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	DBBackend   DatabaseBackend
	DBDSN       string

	// Rule thresholds. Two ROS duration bars exist on purpose: the
	// general bar and the higher nonprofit-sector bar are separate
	// business parameters, not a single value.
	ROSGeneralMinutes   int // run-of-schedule by duration (default 360)
	ROSNonprofitMinutes int // nonprofit sector override bar (default 720)
	ROSLateStartHour    int // starts at/after this hour crossing midnight are ROS (default 19)
	ROSEarlyStartHour   int // starts before this hour running to next day are ROS (default 6)

	// External rule configuration files. Empty means built-in defaults.
	FamilyTablePath string
	RulesConfigPath string

	// Batch runner.
	BatchSize int // spots per commit group

	// Run lock (single logical writer). Disabled unless RedisAddr set.
	RunLockEnabled bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Decision stream for the reporting layer. Disabled unless URL set.
	NATSEnabled bool
	NATSURL     string

	// Prometheus listener for long batch runs. Empty disables it.
	MetricsBind string

	// ROSFromEnv records which threshold variables were explicitly set,
	// so values from a rules file yield only to deliberate overrides.
	ROSFromEnv ROSEnvFlags
}

// ROSEnvFlags marks the threshold env vars present at load time.
type ROSEnvFlags struct {
	GeneralMinutes   bool
	NonprofitMinutes bool
	LateStartHour    bool
	EarlyStartHour   bool
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("LANGBLOCK_ENV", "development"),
		DBBackend:   DatabaseBackend(getEnv("LANGBLOCK_DB_BACKEND", string(DatabasePostgres))),
		DBDSN:       getEnv("LANGBLOCK_DB_DSN", ""),

		FamilyTablePath: getEnv("LANGBLOCK_FAMILY_TABLE", ""),
		RulesConfigPath: getEnv("LANGBLOCK_RULES_CONFIG", ""),

		BatchSize: getEnvInt("LANGBLOCK_BATCH_SIZE", 500),

		RedisAddr:     getEnv("LANGBLOCK_REDIS_ADDR", ""),
		RedisPassword: getEnv("LANGBLOCK_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("LANGBLOCK_REDIS_DB", 0),

		NATSURL: getEnv("LANGBLOCK_NATS_URL", ""),

		MetricsBind: getEnv("LANGBLOCK_METRICS_BIND", ""),
	}

	cfg.ROSGeneralMinutes, cfg.ROSFromEnv.GeneralMinutes = getEnvIntSet("LANGBLOCK_ROS_GENERAL_MINUTES", 360)
	cfg.ROSNonprofitMinutes, cfg.ROSFromEnv.NonprofitMinutes = getEnvIntSet("LANGBLOCK_ROS_NONPROFIT_MINUTES", 720)
	cfg.ROSLateStartHour, cfg.ROSFromEnv.LateStartHour = getEnvIntSet("LANGBLOCK_ROS_LATE_START_HOUR", 19)
	cfg.ROSEarlyStartHour, cfg.ROSFromEnv.EarlyStartHour = getEnvIntSet("LANGBLOCK_ROS_EARLY_START_HOUR", 6)

	cfg.RunLockEnabled = getEnvBool("LANGBLOCK_RUN_LOCK_ENABLED", cfg.RedisAddr != "")
	cfg.NATSEnabled = getEnvBool("LANGBLOCK_NATS_ENABLED", cfg.NATSURL != "")

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("LANGBLOCK_DB_DSN must be provided")
	}

	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("LANGBLOCK_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}

	if cfg.ROSGeneralMinutes <= 0 || cfg.ROSNonprofitMinutes <= 0 {
		return nil, fmt.Errorf("ROS duration thresholds must be positive")
	}

	if cfg.ROSNonprofitMinutes < cfg.ROSGeneralMinutes {
		return nil, fmt.Errorf("LANGBLOCK_ROS_NONPROFIT_MINUTES (%d) must not be below LANGBLOCK_ROS_GENERAL_MINUTES (%d)",
			cfg.ROSNonprofitMinutes, cfg.ROSGeneralMinutes)
	}

	if cfg.RunLockEnabled && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("LANGBLOCK_REDIS_ADDR must be set when the run lock is enabled")
	}

	if cfg.NATSEnabled && cfg.NATSURL == "" {
		return nil, fmt.Errorf("LANGBLOCK_NATS_URL must be set when decision publishing is enabled")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, _ := getEnvIntSet(key, def)
	return v
}

// getEnvIntSet also reports whether the variable carried a usable value.
func getEnvIntSet(key string, def int) (int, bool) {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed, true
		}
	}
	return def, false
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}
