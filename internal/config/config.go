// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/database"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/jobs"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds every runtime setting of the service
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	Database database.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerMin  int
	WriteLimitPerMin int

	AllowedOrigins []string
	EnableHSTS     bool
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	GoogleMapsAPIKey string
	GeocodeSchedule  string
	GeocodeBatchSize int

	ShutdownTimeout time.Duration
}

// Load reads the given .env files (missing files are ignored) and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return nil, errors.NewConfigurationError(fmt.Sprintf("failed to read %s", file), err)
		}
	}

	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults
func FromEnv() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		GinMode:  getEnvOrDefault("GIN_MODE", "release"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		Database: database.Config{
			Driver:          getEnvOrDefault("DB_DRIVER", database.DriverSQLite),
			DataDir:         getEnvOrDefault("DATA_DIR", "./data"),
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    p.getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.getInt("REDIS_DB", 0),

		RateLimitPerMin:  p.getInt("RATE_LIMIT_PER_MIN", 120),
		WriteLimitPerMin: p.getInt("WRITE_RATE_LIMIT_PER_MIN", 20),

		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		EnableHSTS:     p.getBool("ENABLE_HSTS", false),
		RequestTimeout: p.getDuration("REQUEST_TIMEOUT", 15*time.Second),
		MaxBodyBytes:   int64(p.getInt("MAX_BODY_BYTES", 64*1024)),

		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		GeocodeSchedule:  getEnvOrDefault("GEOCODE_SCHEDULE", jobs.DefaultBackfillSchedule),
		GeocodeBatchSize: p.getInt("GEOCODE_BATCH_SIZE", 25),

		ShutdownTimeout: p.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if len(p.errs) > 0 {
		return nil, errors.NewValidationErrorWithMap(p.errs)
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	problems := make(map[string]string)

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		problems["PORT"] = "must be a number between 1 and 65535"
	}

	switch c.Database.Driver {
	case database.DriverSQLite:
	case database.DriverPostgres:
		if c.Database.DSN == "" {
			problems["DATABASE_URL"] = "is required when DB_DRIVER=pgx"
		}
	default:
		problems["DB_DRIVER"] = fmt.Sprintf("unsupported driver %q (use sqlite3 or pgx)", c.Database.Driver)
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		problems["GIN_MODE"] = "must be debug, release or test"
	}

	if c.RateLimitPerMin <= 0 {
		problems["RATE_LIMIT_PER_MIN"] = "must be positive"
	}
	if c.WriteLimitPerMin <= 0 {
		problems["WRITE_RATE_LIMIT_PER_MIN"] = "must be positive"
	}
	if c.RedisDB < 0 {
		problems["REDIS_DB"] = "must not be negative"
	}
	if c.MaxBodyBytes <= 0 {
		problems["MAX_BODY_BYTES"] = "must be positive"
	}
	if c.RequestTimeout <= 0 {
		problems["REQUEST_TIMEOUT"] = "must be positive"
	}
	if c.GeocodeBatchSize < 1 || c.GeocodeBatchSize > 500 {
		problems["GEOCODE_BATCH_SIZE"] = "must be between 1 and 500"
	}
	if _, err := cron.ParseStandard(c.GeocodeSchedule); err != nil {
		problems["GEOCODE_SCHEDULE"] = err.Error()
	}

	if len(problems) > 0 {
		return errors.NewValidationErrorWithMap(problems)
	}
	return nil
}

// GeocodingEnabled reports whether a Google Maps key is configured
func (c *Config) GeocodingEnabled() bool {
	return c.GoogleMapsAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
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

// parser collects conversion failures so they are reported together
type parser struct {
	errs map[string]string
}

func (p *parser) fail(key, msg string) {
	if p.errs == nil {
		p.errs = make(map[string]string)
	}
	p.errs[key] = msg
}

func (p *parser) getInt(key string, def int) int {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, "must be an integer")
		return def
	}
	return v
}

func (p *parser) getBool(key string, def bool) bool {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, "must be true or false")
		return def
	}
	return v
}

func (p *parser) getDuration(key string, def time.Duration) time.Duration {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, "must be a duration such as 30s or 5m")
		return def
	}
	return v
}
