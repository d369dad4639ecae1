package common

import (
	"os"
	"strconv"
	"time"

	"github.com/rxscan/rx-scanner/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	Scan     ScanConfig
}

// DatabaseConfig holds medicine-master database configuration
type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	PSM           int
	OEM           int
}

// ScanConfig holds scan-pipeline configuration
type ScanConfig struct {
	MinTokenConfidence int
	Workers            int
	QueueSize          int
	ProcessTimeout     time.Duration
	WatchDebounce      time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        getEnv("RX_DB_PATH", "medicine_data.db"),
			BusyTimeout: getEnvAsDuration("RX_DB_BUSY_TIMEOUT", 5*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_CMD", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "jpn+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("TESSERACT_PSM", 6),
			OEM:           getEnvAsInt("TESSERACT_OEM", 1),
		},
		Scan: ScanConfig{
			MinTokenConfidence: getEnvAsInt("RX_MIN_CONFIDENCE", constants.MinTokenConfidence),
			Workers:            getEnvAsInt("RX_SCAN_WORKERS", 4),
			QueueSize:          getEnvAsInt("RX_SCAN_QUEUE_SIZE", 256),
			ProcessTimeout:     getEnvAsDuration("RX_SCAN_TIMEOUT", 2*time.Minute),
			WatchDebounce:      getEnvAsDuration("RX_WATCH_DEBOUNCE", 500*time.Millisecond),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "RX_DB_PATH is required", ErrInvalidInput)
	}
	if c.Scan.MinTokenConfidence < 0 || c.Scan.MinTokenConfidence > 100 {
		return NewAppError("CONFIG_ERROR", "RX_MIN_CONFIDENCE must be in 0..100", ErrInvalidInput)
	}
	if c.Scan.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "RX_SCAN_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
