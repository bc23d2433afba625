// Package config provides configuration management for the mongomq standalone
// broker server. It loads settings from environment variables with sensible
// defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the broker server.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Broker BrokerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	TLS             bool
	CappedQueueSize int64 // Byte size of the capped broadcast collection
}

// BrokerConfig holds broker-specific configuration.
type BrokerConfig struct {
	ConsumerInterval    int  // Consumer poll interval in seconds
	EnableNotifications bool // Enable notification service
}

// Load loads configuration from environment variables.
// Follows 12-factor app principles - configuration via environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Mongo: MongoConfig{
			Host:            getEnv("MONGO_HOST", "localhost"),
			Port:            getEnvInt("MONGO_PORT", 27017),
			User:            getEnv("MONGO_USER", ""),
			Password:        getEnv("MONGO_PASSWORD", ""),
			Database:        getEnv("MONGO_DB", ""),
			TLS:             getEnvBool("MONGO_TLS", false),
			CappedQueueSize: int64(getEnvInt("CAPPED_QUEUE_SIZE", 100000)),
		},
		Broker: BrokerConfig{
			ConsumerInterval:    getEnvInt("CONSUMER_INTERVAL", 1),
			EnableNotifications: getEnvBool("BROKER_ENABLE_NOTIFICATIONS", true),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Mongo.Port <= 0 || cfg.Mongo.Port > 65535 {
		return nil, fmt.Errorf("MONGO_PORT must be between 1 and 65535, got %d", cfg.Mongo.Port)
	}
	if cfg.Broker.ConsumerInterval <= 0 {
		return nil, fmt.Errorf("CONSUMER_INTERVAL must be > 0, got %d", cfg.Broker.ConsumerInterval)
	}

	return cfg, nil
}

// getEnv retrieves environment variable or returns default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves environment variable as boolean or returns default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
