package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port             string        `toml:"port"`
	AllowedOrigins   []string      `toml:"allowed_origins"`
	MaxPayloadBytes  int64         `toml:"max_payload_bytes"`
	PongTimeout      time.Duration `toml:"pong_timeout"`
	ConnectRateLimit int           `toml:"connect_rate_limit"`
	AdminJWTSecret   string        `toml:"admin_jwt_secret"`
	LogLevel         string        `toml:"log_level"`
	LogPretty        bool          `toml:"log_pretty"`
}

func DefaultConfig() Config {
	return Config{
		Port:             "3000",
		AllowedOrigins:   []string{"*"},
		MaxPayloadBytes:  5_000_000,
		PongTimeout:      60 * time.Second,
		ConnectRateLimit: 30,
		LogLevel:         "info",
	}
}

// LoadConfig reads .env, then the TOML file named by CONFIG_FILE, then the
// environment. Later sources win.
func LoadConfig() (*Config, error) {
	godotenv.Load()
	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}
	if size := os.Getenv("MAX_PAYLOAD_BYTES"); size != "" {
		parsed, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MAX_PAYLOAD_BYTES: %w", err)
		}
		cfg.MaxPayloadBytes = parsed
	}
	if timeout := os.Getenv("PONG_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("PONG_TIMEOUT: %w", err)
		}
		cfg.PongTimeout = parsed
	}
	if limit := os.Getenv("CONNECT_RATE_LIMIT"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("CONNECT_RATE_LIMIT: %w", err)
		}
		cfg.ConnectRateLimit = parsed
	}
	if secret, ok := os.LookupEnv("ADMIN_JWT_SECRET"); ok {
		cfg.AdminJWTSecret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if pretty := os.Getenv("LOG_PRETTY"); pretty != "" {
		parsed, err := strconv.ParseBool(pretty)
		if err != nil {
			return nil, fmt.Errorf("LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = parsed
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c Config) validate() error {
	if c.Port == "" {
		return errors.New("port is not provided")
	}
	if c.MaxPayloadBytes <= 0 {
		return errors.New("max payload size must be positive")
	}
	if c.PongTimeout <= 0 {
		return errors.New("pong timeout must be positive")
	}
	if c.ConnectRateLimit <= 0 {
		return errors.New("connect rate limit must be positive")
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}
	return nil
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	parsed := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parsed = append(parsed, trimmed)
		}
	}
	return parsed
}

