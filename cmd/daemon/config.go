package main

import (
	"os"
	"strconv"
	"time"
)

// DaemonConfig holds daemon-specific configuration
type DaemonConfig struct {
	ConfigPath     string        // Path to config YAML
	ScheduleHour   int           // Hour in exchange time (default: 18)
	ScheduleMinute int           // Minute (default: 30)
	StateFile      string        // File to track last completed date
	RunOnStartup   bool          // Run immediately if today's run is due and missing
	RetryInterval  time.Duration // Wait between attempts when a run fails
}

// LoadDaemonConfig loads configuration from environment variables
func LoadDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		ConfigPath:     getEnvOrDefault("MONEYFLOW_CONFIG", "configs/default.yaml"),
		ScheduleHour:   getEnvIntOrDefault("MONEYFLOW_DAEMON_SCHEDULE_HOUR", 18),
		ScheduleMinute: getEnvIntOrDefault("MONEYFLOW_DAEMON_SCHEDULE_MINUTE", 30),
		StateFile:      getEnvOrDefault("MONEYFLOW_DAEMON_STATE_FILE", "data/.daemon-state"),
		RunOnStartup:   getEnvBoolOrDefault("MONEYFLOW_DAEMON_RUN_ON_STARTUP", true),
		RetryInterval:  time.Duration(getEnvIntOrDefault("MONEYFLOW_DAEMON_RETRY_MINUTES", 15)) * time.Minute,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
