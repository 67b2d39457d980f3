package web

import (
	"time"

	"github.com/cfdb/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig guards /api with a shared key when APIKey is set.
type AuthConfig struct {
	APIKey string
}

// DefaultConfig reads CFDB_WEB_HOST, CFDB_WEB_PORT and CFDB_API_KEY.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         config.GetEnvInt("CFDB_WEB_PORT", 8080),
			Host:         config.GetEnv("CFDB_WEB_HOST", "localhost"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			APIKey: config.GetEnv("CFDB_API_KEY", ""),
		},
	}
}
