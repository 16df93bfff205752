// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults used when the environment does not override them.
const (
	DefaultAddr       = ":8080"
	DefaultDiameterCm = 15.0
	DefaultLiveFPS    = 30
)

// Config holds configuration options for the pappadam binary.
type Config struct {
	Addr       string
	DataDir    string
	StaticDir  string
	CameraID   int
	DiameterCm float64
	LiveFPS    int
	Tray       bool

	// CommentaryCmd is an optional external commentary provider executable.
	CommentaryCmd string
}

// DBPath returns the settings database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "pappadam.db")
}

// LoadFromEnv builds a Config from PAPPADAM_* variables and validates it.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Addr:          getEnvOrDefault("PAPPADAM_ADDR", DefaultAddr),
		DataDir:       getEnvOrDefault("PAPPADAM_DATA_DIR", defaultDataDir()),
		StaticDir:     os.Getenv("PAPPADAM_STATIC_DIR"),
		CameraID:      int(parseIntOrDefault("PAPPADAM_CAMERA_ID", 0)),
		DiameterCm:    parseFloatOrDefault("PAPPADAM_DIAMETER_CM", DefaultDiameterCm),
		LiveFPS:       int(parseIntOrDefault("PAPPADAM_LIVE_FPS", DefaultLiveFPS)),
		Tray:          parseBoolOrDefault("PAPPADAM_TRAY", false),
		CommentaryCmd: os.Getenv("PAPPADAM_COMMENTARY_CMD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("PAPPADAM_ADDR must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("PAPPADAM_DATA_DIR must not be empty")
	}
	if c.CameraID < 0 {
		return fmt.Errorf("invalid PAPPADAM_CAMERA_ID: %d", c.CameraID)
	}
	if c.DiameterCm <= 0 {
		return fmt.Errorf("PAPPADAM_DIAMETER_CM must be > 0 (got %g)", c.DiameterCm)
	}
	if c.LiveFPS < 1 || c.LiveFPS > 120 {
		return fmt.Errorf("PAPPADAM_LIVE_FPS must be in [1, 120] (got %d)", c.LiveFPS)
	}
	if c.CommentaryCmd != "" {
		info, err := os.Stat(c.CommentaryCmd)
		if err != nil {
			return fmt.Errorf("PAPPADAM_COMMENTARY_CMD: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("PAPPADAM_COMMENTARY_CMD is a directory: %s", c.CommentaryCmd)
		}
	}
	return nil
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pappadam"
	}
	return filepath.Join(homeDir, ".pappadam")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
