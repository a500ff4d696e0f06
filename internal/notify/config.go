package notify

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
)

var validPriorities = []string{"min", "low", "default", "high", "urgent"}

// Config holds ntfy notification configuration.
type Config struct {
	Enabled  bool   // Whether notifications are enabled
	Server   string // ntfy server URL (default: https://ntfy.sh)
	Topic    string // Topic name (required if enabled)
	Priority string // Message priority: min, low, default, high, urgent
	Tags     string // Comma-separated emoji tags
	Token    string // Optional access token for private topics
	Click    string // Optional URL opened when the notification is tapped
}

// LoadConfig loads notification config from MONEYFLOW_NTFY_* environment
// variables.
func LoadConfig() *Config {
	return &Config{
		Enabled:  getEnvBoolOrDefault("MONEYFLOW_NTFY_ENABLED", false),
		Server:   getEnvOrDefault("MONEYFLOW_NTFY_SERVER", "https://ntfy.sh"),
		Topic:    os.Getenv("MONEYFLOW_NTFY_TOPIC"),
		Priority: getEnvOrDefault("MONEYFLOW_NTFY_PRIORITY", "default"),
		Tags:     getEnvOrDefault("MONEYFLOW_NTFY_TAGS", "chart_with_upwards_trend"),
		Token:    os.Getenv("MONEYFLOW_NTFY_TOKEN"),
		Click:    os.Getenv("MONEYFLOW_NTFY_CLICK"),
	}
}

// Validate checks configuration is valid when enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Topic == "" {
		return errors.New("MONEYFLOW_NTFY_TOPIC is required when MONEYFLOW_NTFY_ENABLED=true")
	}

	if !slices.Contains(validPriorities, c.Priority) {
		return fmt.Errorf("invalid MONEYFLOW_NTFY_PRIORITY: %s (valid: min, low, default, high, urgent)", c.Priority)
	}

	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
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
