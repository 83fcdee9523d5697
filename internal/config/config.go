// Package config loads process configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start. It is built once in
// main and passed down; nothing reads the environment after Load returns.
type Config struct {
	Port      int
	DBPath    string
	StaticDir string
}

// Load reads configuration from the environment. A .env file in the working
// directory (or at ENV_FILE) is applied first if present; a missing file is
// not an error. Defaults: port 3000, data/tracker.db, web/static.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// Only fills in variables that are not already set, so real environment
	// values win over the file.
	_ = godotenv.Load(envFile)

	cfg := Config{
		Port:      3000,
		DBPath:    getEnv("DB_PATH", "data/tracker.db"),
		StaticDir: getEnv("STATIC_DIR", "web/static"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
