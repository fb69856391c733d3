package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is the scoring service address used when RECRUITER_API_URL is unset.
const DefaultAPIURL = "http://localhost:8000"

var (
	errInvalidPort      = errors.New("config: invalid PORT number")
	errInvalidAPIURL    = errors.New("config: RECRUITER_API_URL must be an absolute http(s) URL")
	errInvalidTimeout   = errors.New("config: ANALYZE_TIMEOUT must not be negative")
	errInvalidUploadMax = errors.New("config: MAX_UPLOAD_BYTES must be positive")
	errInvalidTTL       = errors.New("config: SESSION_TTL must be positive")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	APIBaseURL     string
	Port           string
	LogLevel       string
	StateFile      string
	AnalyzeTimeout time.Duration // zero means no overall timeout
	MaxUploadBytes int64
	SessionTTL     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; values
// already set in the environment win. A .env that cannot be parsed is an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Config{
		APIBaseURL:     strings.TrimRight(getEnv("RECRUITER_API_URL", DefaultAPIURL), "/"),
		Port:           getEnv("PORT", "5173"),
		LogLevel:       getEnv("LOG_LEVEL", "ERROR"),
		StateFile:      getEnv("STATE_FILE", "recruiter-state.json"),
		AnalyzeTimeout: getEnvAsDuration("ANALYZE_TIMEOUT", 0),
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", time.Hour),
	}

	return cfg, cfg.validate()
}

// Endpoints resolves the fixed endpoint URLs against the configured base.
func (c Config) Endpoints() Endpoints {
	return NewEndpoints(c.APIBaseURL)
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidAPIURL, c.APIBaseURL)
	}

	if c.AnalyzeTimeout < 0 {
		return fmt.Errorf("%w: got %s", errInvalidTimeout, c.AnalyzeTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: got %d", errInvalidUploadMax, c.MaxUploadBytes)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: got %s", errInvalidTTL, c.SessionTTL)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

// getEnvAsDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
