package config

import (
	"os"
	"strconv"
	"strings"
)

// applyHostingOverrides reads the flat variable names hosting platforms and
// deploy scripts set. They win over the SECTION_KEY names viper binds.
func applyHostingOverrides(c *Config) {
	c.Server.Port = GetEnv("PORT", c.Server.Port)
	c.Server.AllowedHosts = GetEnvAsSlice("ALLOWED_HOSTS", ",", c.Server.AllowedHosts)
	c.RateLimit.Burst = GetEnvAsInt("PURCHASE_BURST", c.RateLimit.Burst)
	c.Scheduler.Enabled = !GetEnvAsBool("DISABLE_SCHEDULER", !c.Scheduler.Enabled)
}

// GetEnv retrieves an environment variable or returns a default value if not found
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAs parses a set variable, keeping defaultValue when it is unset or malformed.
func getEnvAs[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvAsBool retrieves an environment variable as a boolean
func GetEnvAsBool(key string, defaultValue bool) bool {
	return getEnvAs(key, defaultValue, strconv.ParseBool)
}

// GetEnvAsInt retrieves an environment variable as an integer
func GetEnvAsInt(key string, defaultValue int) int {
	return getEnvAs(key, defaultValue, strconv.Atoi)
}

// GetEnvAsSlice splits an environment variable on sep, dropping blank items.
// A variable holding only separators keeps the default.
func GetEnvAsSlice(key, sep string, defaultValue []string) []string {
	return getEnvAs(key, defaultValue, func(value string) ([]string, error) {
		var items []string
		for _, part := range strings.Split(value, sep) {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if len(items) == 0 {
			return nil, strconv.ErrSyntax
		}
		return items, nil
	})
}
