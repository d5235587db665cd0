package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates every setting the service reads.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Database: database, Log: loadLogConfig()}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DatabaseConfig describes the durable message store.
type DatabaseConfig struct {
	Driver   string // sqlite or postgres
	Path     string // sqlite only
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	cfg := DatabaseConfig{
		Driver:   envOr("CHAT_DB_DRIVER", "sqlite"),
		Path:     envOr("CHAT_DB_PATH", "chat.db"),
		Host:     envOr("CHAT_DB_HOST", "localhost"),
		User:     os.Getenv("CHAT_DB_USER"),
		Password: os.Getenv("CHAT_DB_PASSWORD"),
		Name:     envOr("CHAT_DB_NAME", "chat"),
		SSLMode:  envOr("CHAT_DB_SSLMODE", "disable"),
	}

	switch cfg.Driver {
	case "sqlite", "postgres":
	default:
		return DatabaseConfig{}, fmt.Errorf("unsupported CHAT_DB_DRIVER: %q", cfg.Driver)
	}

	port := envOr("CHAT_DB_PORT", "5432")
	n, err := strconv.Atoi(port)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid CHAT_DB_PORT value: %q", port)
	}
	cfg.Port = n

	return cfg, nil
}

// LogConfig describes diagnostic output.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() LogConfig {
	pretty, _ := strconv.ParseBool(os.Getenv("LOG_PRETTY"))
	return LogConfig{
		Level:  envOr("LOG_LEVEL", "info"),
		Pretty: pretty,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
