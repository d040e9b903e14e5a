// Package config loads runtime settings from the environment, with an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings.
type Config struct {
	APIURL          string        // property API base URL
	APIToken        string        // bearer token for the property API
	StrictSchema    bool          // validate API responses against their JSON schema
	GeocoderURL     string        // Nominatim-compatible search endpoint
	UserAgent       string        // User-Agent sent to the geocoder
	GeocodeTimeout  time.Duration // per-lookup geocoding timeout
	GeocodeCacheTTL time.Duration
	DBPath          string // empty means db.DefaultPath
	PerPage         int
	SearchDelay     time.Duration // keyword debounce window
	SuggestDelay    time.Duration // suggestion debounce window
	SampleSize      int           // listings sampled for the location directory
	RedisURL        string        // optional shared geocode cache
	FluentHost      string        // optional log forwarding
	FluentPort      int
	DevMode         bool
	CORSOrigins     []string
}

// Load reads an optional .env file from the working directory (or the
// given paths) and builds a Config from RF_* variables. Variables already
// set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from RF_* environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		APIURL:      envOrDefault("RF_API_URL", "http://localhost:8000/api"),
		APIToken:    os.Getenv("RF_API_TOKEN"),
		GeocoderURL: envOrDefault("RF_GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		UserAgent:   envOrDefault("RF_USER_AGENT", "rumah-finder/1.0"),
		DBPath:      os.Getenv("RF_DB_PATH"),
		RedisURL:    os.Getenv("RF_REDIS_URL"),
		FluentHost:  os.Getenv("RF_FLUENT_HOST"),
		DevMode:     os.Getenv("RF_DEV_MODE") == "true",
		CORSOrigins: splitList(envOrDefault("RF_CORS_ORIGINS", "http://localhost:5173")),
	}

	var err error
	if cfg.StrictSchema, err = envBool("RF_STRICT_SCHEMA", cfg.DevMode); err != nil {
		return Config{}, err
	}
	if cfg.PerPage, err = envInt("RF_PER_PAGE", 12); err != nil {
		return Config{}, err
	}
	if cfg.SampleSize, err = envInt("RF_DIRECTORY_SAMPLE", 200); err != nil {
		return Config{}, err
	}
	if cfg.FluentPort, err = envInt("RF_FLUENT_PORT", 24224); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeTimeout, err = envDuration("RF_GEOCODE_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeCacheTTL, err = envDuration("RF_GEOCODE_CACHE_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SearchDelay, err = envDuration("RF_SEARCH_DEBOUNCE", 400*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SuggestDelay, err = envDuration("RF_SUGGEST_DEBOUNCE", 300*time.Millisecond); err != nil {
		return Config{}, err
	}

	if cfg.PerPage < 1 {
		return Config{}, fmt.Errorf("RF_PER_PAGE must be positive")
	}
	if cfg.SampleSize < 1 {
		return Config{}, fmt.Errorf("RF_DIRECTORY_SAMPLE must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
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
