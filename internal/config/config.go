package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Profile   string
	Sheet     string
	HeaderRow int
	OutputDir string

	Workers    int
	SampleRows int

	// RequireActivePeriod forces the profile's require_active_period on.
	RequireActivePeriod bool

	WatchDir         string
	WatchIntervalSec int

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Profile:   getEnv("TKB_PROFILE", DefaultProfileName),
		Sheet:     getEnv("TKB_SHEET", "TKB CHINH"),
		HeaderRow: getEnvInt("TKB_HEADER_ROW", 9),
		OutputDir: getEnv("TKB_OUTPUT_DIR", filepath.Join(cwd, "out")),

		Workers:    getEnvInt("TKB_WORKERS", 1),
		SampleRows: getEnvInt("TKB_SAMPLE_ROWS", 15),

		RequireActivePeriod: getEnvBool("TKB_REQUIRE_ACTIVE_PERIOD", false),

		WatchDir:         getEnv("TKB_WATCH_DIR", filepath.Join(cwd, "inbox")),
		WatchIntervalSec: getEnvInt("TKB_WATCH_INTERVAL_SEC", 30),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if cfg.HeaderRow < 0 {
		return Config{}, fmt.Errorf("TKB_HEADER_ROW must be >= 0, got %d", cfg.HeaderRow)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.WatchIntervalSec < 1 {
		cfg.WatchIntervalSec = 30
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
