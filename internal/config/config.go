package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
	Notifier  NotifierConfig
	Draw      DrawConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	Issuer    string
	ExpiresIn int // seconds
}

// RateLimitConfig bounds purchase requests per caller
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SchedulerConfig holds cron job configuration
type SchedulerConfig struct {
	Enabled          bool
	CloseExpiredSpec string
}

// NotifierConfig holds the winner notification webhook configuration
type NotifierConfig struct {
	WebhookURL string
	Mock       bool
	Timeout    time.Duration
}

// DrawConfig holds draw reference settings
type DrawConfig struct {
	IDPrefix string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyHostingOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	switch {
	case c.MongoDB.URI == "":
		return fmt.Errorf("config: MongoDB.URI is required")
	case c.MongoDB.Database == "":
		return fmt.Errorf("config: MongoDB.Database is required")
	case c.JWT.Secret == "":
		return fmt.Errorf("config: JWT.Secret is required")
	case c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1:
		return fmt.Errorf("config: RateLimit needs a positive rate and burst")
	case !c.Notifier.Mock && c.Notifier.WebhookURL == "":
		return fmt.Errorf("config: Notifier.WebhookURL is required unless Notifier.Mock is set")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.ReadTimeout", 15*time.Second)
	v.SetDefault("Server.WriteTimeout", 30*time.Second)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "competitions")
	v.SetDefault("MongoDB.Timeout", 10*time.Second)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.Issuer", "competitions-backend")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("RateLimit.RequestsPerSecond", 5.0)
	v.SetDefault("RateLimit.Burst", 10)
	v.SetDefault("Scheduler.Enabled", true)
	v.SetDefault("Scheduler.CloseExpiredSpec", "@every 1m")
	v.SetDefault("Notifier.WebhookURL", "")
	v.SetDefault("Notifier.Mock", true)
	v.SetDefault("Notifier.Timeout", 10*time.Second)
	v.SetDefault("Draw.IDPrefix", "DRAW")
	v.SetDefault("LogLevel", "info")
}
