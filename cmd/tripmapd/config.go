package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the map service
type Config struct {
	Addr        string
	DBPath      string
	StylePath   string
	CORSOrigins []string

	// Render limits
	MaxBodyBytes  int64
	RenderTimeout time.Duration
	MaxDimension  float64
	PNGMinSide    int
}

// LoadConfig reads configuration from environment variables with sensible defaults
func LoadConfig() *Config {
	return &Config{
		Addr:          getEnv("TRIPMAP_ADDR", ":8080"),
		DBPath:        getEnv("TRIPMAP_DB", "tripmap.db"),
		StylePath:     getEnv("TRIPMAP_STYLE", ""),
		CORSOrigins:   splitList(getEnv("TRIPMAP_CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes:  int64(getEnvInt("TRIPMAP_MAX_BODY_KB", 4096)) * 1024,
		RenderTimeout: time.Duration(getEnvInt("TRIPMAP_RENDER_TIMEOUT", 30)) * time.Second,
		MaxDimension:  float64(getEnvInt("TRIPMAP_MAX_DIMENSION", 4096)),
		PNGMinSide:    getEnvInt("TRIPMAP_PNG_MIN_SIDE", 2000),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
