package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries all runtime settings. Values come from the environment,
// optionally seeded from a .env file outside release mode.
type Config struct {
	Debug            bool   `envconfig:"DEBUG" default:"false"`
	Port             int    `envconfig:"PORT" default:"8080"`
	DatabaseURL      string `envconfig:"DB_URL" required:"true"`
	RedisURL         string `envconfig:"REDIS_URL"`
	AsynqConcurrency int    `envconfig:"ASYNQ_CONCURRENCY" default:"10"`
}

// Load reads the .env file (best effort) and processes the environment.
func Load() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, err
	}
	return c, nil
}
