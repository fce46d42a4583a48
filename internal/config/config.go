package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the MedVise server. Values come from
// the environment, optionally seeded from a .env file in the working
// directory.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`
	JWTSecret    string `env:"JWT_SECRET,required"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"medvise.db"`
	HTTPPort    string `env:"HTTP_PORT"    envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"INFO"`

	// UpstreamTimeout bounds a single call to the generative model.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	// TokenTTL is the validity window of issued session tokens.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment: %w", err)
	}
	return cfg, nil
}
