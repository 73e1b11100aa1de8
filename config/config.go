package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ClientID        string        `env:"IMGUR_CLIENT_ID" envDefault:"68822c8af5d38d9"`
	APIURL          string        `env:"IMGUR_API_URL" envDefault:"https://api.imgur.com/3"`
	AuthorizeURL    string        `env:"IMGUR_AUTHORIZE_URL" envDefault:"https://api.imgur.com/oauth2/authorize"`
	DBDriver        string        `env:"EPICTURE_DB_DRIVER" envDefault:"sqlite"`
	DBDSN           string        `env:"EPICTURE_DB_DSN" envDefault:"epicture.db"`
	HTTPTimeout     time.Duration `env:"EPICTURE_HTTP_TIMEOUT" envDefault:"30s"`
	IgnoreMigration bool          `env:"IGNORE_SQL_MIGRATION"`
	Debug           bool          `env:"DEBUG"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ClientID == "" {
		return Config{}, fmt.Errorf("IMGUR_CLIENT_ID must not be empty")
	}
	return cfg, nil
}
