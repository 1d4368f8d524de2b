package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/autopages/internal/convert"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Data loading
	CSVDelimiter string
	StripMarkup  bool

	// Output naming
	LegacyPathSubstitution bool

	// Conversion
	ConverterImage  string
	DockerCommand   string
	ConvertTimeout  time.Duration
	ConvertAttempts int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL  time.Duration
	WorkDir string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("AUTOPAGES_API_KEY"),

		CSVDelimiter: envOr("AUTOPAGES_CSV_DELIMITER", ";"),
		StripMarkup:  envBool("AUTOPAGES_STRIP_MARKUP", false),

		LegacyPathSubstitution: envBool("AUTOPAGES_LEGACY_PATH_SUBST", true),

		ConverterImage:  envOr("AUTOPAGES_CONVERTER_IMAGE", convert.DefaultImage),
		DockerCommand:   envOr("AUTOPAGES_DOCKER_BIN", "docker"),
		ConvertTimeout:  envDuration("AUTOPAGES_CONVERT_TIMEOUT", convert.DefaultTimeout),
		ConvertAttempts: envInt("AUTOPAGES_CONVERT_RETRIES", convert.MaxRetries-1) + 1,

		WorkerCount:  envInt("AUTOPAGES_WORKERS", runtime.NumCPU()),
		MaxQueueSize: envInt("AUTOPAGES_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("AUTOPAGES_MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:  envDuration("AUTOPAGES_JOB_TTL", 1*time.Hour),
		WorkDir: envOr("AUTOPAGES_WORK_DIR", filepath.Join(os.TempDir(), "autopages")),
	}

	if cfg.ConvertTimeout <= 0 {
		cfg.ConvertTimeout = convert.DefaultTimeout
	}
	if cfg.ConvertAttempts <= 0 {
		cfg.ConvertAttempts = 1
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings shared by every command.
func (c Config) Validate() error {
	if _, err := ParseDelimiter(c.CSVDelimiter); err != nil {
		return fmt.Errorf("AUTOPAGES_CSV_DELIMITER: %w", err)
	}
	if c.ConverterImage == "" {
		return fmt.Errorf("AUTOPAGES_CONVERTER_IMAGE must not be empty")
	}
	return nil
}

// ValidateServer checks the settings the HTTP service needs on top of Validate.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("AUTOPAGES_API_KEY is required")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("AUTOPAGES_WORK_DIR must not be empty")
	}
	return nil
}

// Delimiter returns the CSV delimiter. Call Validate first.
func (c Config) Delimiter() rune {
	r, _ := ParseDelimiter(c.CSVDelimiter)
	return r
}

// ParseDelimiter accepts a single character, or "tab" / `\t`.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if s == "" || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
