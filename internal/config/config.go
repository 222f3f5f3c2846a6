// Package config loads the service configuration from environment variables.
//
// Values are read once at process start. An optional .env file in the working
// directory is loaded first; variables already present in the environment win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration. It is read-only after Load.
type Config struct {
	// TimeBudget is the wall-clock budget for the id_ine retry loop.
	TimeBudget time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// MaxImageSize is the largest accepted upload, in bytes.
	MaxImageSize int64

	// MinImageSize is the smallest accepted upload, in bytes. Anything smaller
	// is almost certainly not a photograph.
	MinImageSize int64

	// Language is the Tesseract language code.
	Language string

	// TesseractCmd is the tesseract binary used for orientation detection.
	TesseractCmd string

	// TessdataPrefix overrides the tessdata directory when non-empty.
	TessdataPrefix string

	// TemplatesPath points to a JSON file replacing the embedded ROI templates.
	TemplatesPath string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		TimeBudget:   9500 * time.Millisecond,
		MaxRetries:   2,
		MaxImageSize: 5 * 1024 * 1024,
		MinImageSize: 1000,
		Language:     "spa",
		TesseractCmd: "tesseract",
		LogLevel:     "info",
	}
}

// Load reads configuration from the environment, applying defaults for
// anything unset, and validates the result.
func Load() (*Config, error) {
	// A missing .env file is the normal case in production.
	_ = godotenv.Load()

	def := Default()
	cfg := &Config{
		TimeBudget:     time.Duration(getEnvAsIntOrDefault("INE_OCR_TIME_BUDGET_MS", int(def.TimeBudget/time.Millisecond))) * time.Millisecond,
		MaxRetries:     getEnvAsIntOrDefault("INE_OCR_MAX_RETRIES", def.MaxRetries),
		MaxImageSize:   int64(getEnvAsIntOrDefault("INE_OCR_MAX_IMAGE_SIZE_MB", 5)) * 1024 * 1024,
		MinImageSize:   getEnvAsInt64OrDefault("INE_OCR_MIN_IMAGE_BYTES", def.MinImageSize),
		Language:       getEnvOrDefault("INE_OCR_LANGUAGE", def.Language),
		TesseractCmd:   getEnvOrDefault("INE_OCR_TESSERACT_CMD", def.TesseractCmd),
		TessdataPrefix: getEnvOrDefault("INE_OCR_TESSDATA_PREFIX", ""),
		TemplatesPath:  getEnvOrDefault("INE_OCR_ROI_TEMPLATES", ""),
		LogLevel:       strings.ToLower(getEnvOrDefault("INE_OCR_LOG_LEVEL", def.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that every value is within its accepted range.
func (c *Config) Validate() error {
	if c.TimeBudget <= 0 {
		return fmt.Errorf("INE_OCR_TIME_BUDGET_MS must be positive, got %v", c.TimeBudget)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("INE_OCR_MAX_RETRIES must be between 0 and 10, got %d", c.MaxRetries)
	}
	if c.MaxImageSize < 1024 {
		return fmt.Errorf("INE_OCR_MAX_IMAGE_SIZE_MB must be at least 1, got %d bytes", c.MaxImageSize)
	}
	if c.MinImageSize < 0 || c.MinImageSize >= c.MaxImageSize {
		return fmt.Errorf("INE_OCR_MIN_IMAGE_BYTES must be between 0 and the max image size, got %d", c.MinImageSize)
	}
	if c.Language == "" {
		return fmt.Errorf("INE_OCR_LANGUAGE is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("INE_OCR_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// MaxAttempts is the total number of id_ine extraction attempts allowed.
func (c *Config) MaxAttempts() int {
	return c.MaxRetries + 1
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
