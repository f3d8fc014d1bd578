package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration. It is read once at start-up.
type Config struct {
	Port            string
	SafeBrowsingKey string
	SafeBrowsingRPS float64
	ModelPath       string
	ListsFile       string
	RiskThreshold   float64
	LookupTimeout   time.Duration
	LogLevel        string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:            "8080",
		SafeBrowsingRPS: 5,
		ModelPath:       "model.json",
		RiskThreshold:   2,
		LookupTimeout:   5 * time.Second,
		LogLevel:        "info",
	}
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, falling back to Defaults for every
// unset variable.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Defaults()

	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	cfg.SafeBrowsingKey = getenv("GOOGLE_SAFE_BROWSING_KEY")
	if v := getenv("MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}
	cfg.ListsFile = getenv("LISTS_FILE")
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if v := getenv("RISK_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return cfg, fmt.Errorf("RISK_THRESHOLD must be a positive number (got %q)", v)
		}
		cfg.RiskThreshold = f
	}
	if v := getenv("SAFE_BROWSING_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return cfg, fmt.Errorf("SAFE_BROWSING_RPS must be >= 0 (got %q)", v)
		}
		cfg.SafeBrowsingRPS = f
	}
	if v := getenv("LOOKUP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("LOOKUP_TIMEOUT must be a positive duration (got %q)", v)
		}
		cfg.LookupTimeout = d
	}

	return cfg, nil
}

// NewLogger returns a text logger at the requested level.
func NewLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log := logrus.New()
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}
