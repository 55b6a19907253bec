package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel         string  `env:"LOG_LEVEL" envDefault:"info"`
	DataDir          string  `env:"AUDIT_DATA_DIR" envDefault:"./data/audit"`
	ServerAddr       string  `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr        string  `env:"ADMIN_ADDR" envDefault:":9091"`
	JWTSecret        string  `env:"JWT_SECRET,required"`
	PostgresURL      string  `env:"POSTGRES_URL,required"`
	RedisAddr        string  `env:"REDIS_ADDR"` // optional; empty selects the in-memory locator map
	FailedLoginRate  float64 `env:"FAILED_LOGIN_RATE" envDefault:"5"`
	FailedLoginBurst int     `env:"FAILED_LOGIN_BURST" envDefault:"10"`
	ListDefaultLimit int     `env:"LIST_DEFAULT_LIMIT" envDefault:"20"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
