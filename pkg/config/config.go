package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries process-level settings. Every field has a working
// default so a fresh checkout runs with no environment at all.
type Config struct {
	// ConfigDir is the directory holding event-type definition files.
	ConfigDir string
	// LogDir is the directory journal files are written to.
	LogDir string
	// Sink selects the journal backend: "file" or "sql".
	Sink string
	// Layout selects the journal line shape: "record" or "attributive".
	Layout string
	// DBDriver and DBDSN configure the SQL sink. The driver must be
	// registered by the importing binary.
	DBDriver string
	DBDSN    string
	// AppLogPath, when set, routes application logs to a rotated file
	// instead of stderr.
	AppLogPath string
	// Timezone names the location used when interpreting wall-clock
	// input such as "--at 07:30".
	Timezone string
}

// FromEnv builds a Config from the environment, loading a .env file
// first when one is present. Missing variables fall back to defaults.
func FromEnv() *Config {
	// A missing .env is the normal case, not an error.
	_ = godotenv.Load()

	return &Config{
		ConfigDir:  getEnv("AMORFATI_CONFIG_DIR", "configs"),
		LogDir:     getEnv("AMORFATI_LOG_DIR", "logs"),
		Sink:       getEnv("AMORFATI_SINK", "file"),
		Layout:     getEnv("AMORFATI_LAYOUT", "record"),
		DBDriver:   getEnv("AMORFATI_DB_DRIVER", "sqlite"),
		DBDSN:      getEnv("AMORFATI_DB_DSN", "amorfati.db"),
		AppLogPath: getEnv("AMORFATI_APP_LOG", ""),
		Timezone:   getEnv("AMORFATI_TZ", "Local"),
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
