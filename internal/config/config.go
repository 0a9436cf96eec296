// Package config handles application configuration from environment
// variables, with an optional config/config.env dotenv file for local
// credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	// LTA DataMall availability feed.
	DataMallURL        string `validate:"required,url"`
	DataMallAccountKey string
	FeedPageSize       int           `validate:"gt=0"`
	FeedTimeout        time.Duration `validate:"gt=0"`

	// OneMap geocoding and routing.
	OneMapBaseURL  string `validate:"required,url"`
	OneMapEmail    string
	OneMapPassword string
	OneMapTimeout  time.Duration `validate:"gt=0"`
	TokenCachePath string        `validate:"required"`

	// Nearest-carpark search.
	CandidatePoolSize  int           `validate:"gt=0"`
	RouteCallInterval  time.Duration `validate:"gte=0"`
	DefaultResultCount int           `validate:"gt=0"`

	// Persistence.
	SnapshotPath   string `validate:"required"`
	CityMapPath    string `validate:"required"`
	NearestMapPath string `validate:"required"`
	DatabaseURL    string // optional Postgres snapshot store

	// Optional availability publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Serve mode.
	HTTPAddr        string        `validate:"required"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A config/config.env file is loaded first when present so
// credentials can live outside the environment.
func Load() (*Config, error) {
	// Missing dotenv file is the normal case in deployed environments.
	_ = godotenv.Load("config/config.env")

	feedTimeout, err := parseDuration("FEED_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	oneMapTimeout, err := parseDuration("ONEMAP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	routeInterval, err := parseDuration("ROUTE_CALL_INTERVAL", "100ms")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	pageSize, err := parseInt("FEED_PAGE_SIZE", 500)
	if err != nil {
		return nil, err
	}
	poolSize, err := parseInt("CANDIDATE_POOL_SIZE", 30)
	if err != nil {
		return nil, err
	}
	defaultN, err := parseInt("DEFAULT_RESULT_COUNT", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataMallURL:        envOrDefault("LTA_DATAMALL_URL", "https://datamall2.mytransport.sg/ltaodataservice/CarParkAvailabilityv2"),
		DataMallAccountKey: os.Getenv("LTA_DATAMALL_ACCOUNT_KEY"),
		FeedPageSize:       pageSize,
		FeedTimeout:        feedTimeout,

		OneMapBaseURL:  envOrDefault("ONEMAP_BASE_URL", "https://www.onemap.gov.sg"),
		OneMapEmail:    os.Getenv("ONEMAP_EMAIL"),
		OneMapPassword: os.Getenv("ONEMAP_PASSWORD"),
		OneMapTimeout:  oneMapTimeout,
		TokenCachePath: envOrDefault("ONEMAP_TOKEN_CACHE", "config/token_cache.json"),

		CandidatePoolSize:  poolSize,
		RouteCallInterval:  routeInterval,
		DefaultResultCount: defaultN,

		SnapshotPath:   envOrDefault("SNAPSHOT_PATH", "data/carpark_data.csv"),
		CityMapPath:    envOrDefault("CITY_MAP_PATH", "carpark_map.html"),
		NearestMapPath: envOrDefault("NEAREST_MAP_PATH", "nearest_carparks_map.html"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "carpark-availability"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.CandidatePoolSize < cfg.DefaultResultCount {
		return nil, errors.New("CANDIDATE_POOL_SIZE must be >= DEFAULT_RESULT_COUNT")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

// RequireAccountKey fails when the feed credential is missing. Called
// before any feed request is attempted.
func (c *Config) RequireAccountKey() error {
	if c.DataMallAccountKey == "" {
		return errors.New("LTA_DATAMALL_ACCOUNT_KEY is not set; add it to config/config.env or the environment")
	}
	return nil
}

// RequireOneMapCredentials fails when the OneMap login is missing. Called
// before any geocoding or routing request is attempted.
func (c *Config) RequireOneMapCredentials() error {
	if c.OneMapEmail == "" || c.OneMapPassword == "" {
		return errors.New("ONEMAP_EMAIL and ONEMAP_PASSWORD must be set; add them to config/config.env or the environment")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
