package main

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs from the environment. The
// spreadsheet webapp URL is the single required setting; without it the
// process refuses to start.
type Config struct {
	Port            string
	SheetWebappURL  string
	SnapshotPath    string
	RefreshInterval time.Duration
	BoardPassword   string
	JWTSecret       string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:            getEnv("PORT", "3001"),
		SheetWebappURL:  os.Getenv("SHEET_WEBAPP_URL"),
		SnapshotPath:    getEnv("SNAPSHOT_DB", "./sheetboard.db"),
		RefreshInterval: 5 * time.Minute,
		BoardPassword:   os.Getenv("BOARD_PASSWORD"),
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
	}

	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("invalid REFRESH_INTERVAL: " + err.Error())
		}
		cfg.RefreshInterval = d
	}

	if cfg.SheetWebappURL == "" {
		return nil, errors.New("SHEET_WEBAPP_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
