package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by FOCUS_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("FOCUS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process environment still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RunMigrations reports whether pending migrations are applied at startup.
// Defaults to true.
func RunMigrations() bool {
	v, err := strconv.ParseBool(os.Getenv("RUN_MIGRATIONS"))
	if err != nil {
		return true
	}
	return v
}

// RedisURL returns the redis connection URL used for the report cache.
// An empty value disables caching.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// GeminiModel returns the model used for draft generation.
// Defaults to "gemini-2.0-flash".
func GeminiModel() string {
	m := os.Getenv("GEMINI_MODEL")
	if m == "" {
		return "gemini-2.0-flash"
	}
	return m
}

// DraftProvider returns the configured draft generator.
// Defaults to "none" if not set.
// Valid values: gemini, mock, none
func DraftProvider() string {
	p := os.Getenv("DRAFT_PROVIDER")
	if p == "" {
		return "none"
	}
	return p
}

// DraftAPIKey returns the API key for the configured draft provider.
func DraftAPIKey() string {
	switch DraftProvider() {
	case "gemini":
		return GeminiAPIKey()
	default:
		return ""
	}
}

// BriefingInterval returns how often the daily batch runs.
// Defaults to 24h.
func BriefingInterval() time.Duration {
	d, err := time.ParseDuration(os.Getenv("BRIEFING_INTERVAL"))
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// BriefingOffset returns how long after 00:00 UTC (and each later interval
// boundary) the batch runs. Defaults to 5m.
func BriefingOffset() time.Duration {
	d, err := time.ParseDuration(os.Getenv("BRIEFING_OFFSET"))
	if err != nil || d < 0 {
		return 5 * time.Minute
	}
	return d
}

// BriefingConcurrency returns how many tenants are computed in parallel.
// Defaults to 8.
func BriefingConcurrency() int {
	n, err := strconv.Atoi(os.Getenv("BRIEFING_CONCURRENCY"))
	if err != nil || n <= 0 {
		return 8
	}
	return n
}

// BriefingDrafts reports whether the daily batch also generates drafts.
// Defaults to false.
func BriefingDrafts() bool {
	v, _ := strconv.ParseBool(os.Getenv("BRIEFING_DRAFTS"))
	return v
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
