package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the facility search service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - HTTPPort: The port of the public API server.
// - HealthPort: The port of the monitoring server.
// - ProviderType: The place provider to use (google, http).
// - GeocoderType: The geocoder used for address searches (google, nominatim).
// - Concurrency: The maximum number of simultaneous detail lookups per search.
// - Database: Optional PostgreSQL settings for search telemetry.
type Config struct {
	Env             string         // Env is the current environment: local, development, production.
	HTTPPort        int            // HTTPPort is the public API server port.
	HealthPort      int            // HealthPort is the monitoring server port.
	ProviderType    string         // ProviderType specifies which place provider to use.
	APIKey          string         // The API key for the place provider and Google geocoder.
	SearchEndpoint  string         // SearchEndpoint is the nearby search URL of an HTTP provider.
	DetailEndpoint  string         // DetailEndpoint is the place detail URL of an HTTP provider.
	RateLimit       int            // RateLimit is the provider request budget per second.
	GeocoderType    string         // GeocoderType specifies the address geocoder, empty disables it.
	Concurrency     int            // Concurrency caps simultaneous detail lookups.
	LocateTimeout   time.Duration  // LocateTimeout bounds position acquisition.
	SearchTimeout   time.Duration  // SearchTimeout bounds the candidate search request.
	DetailTimeout   time.Duration  // DetailTimeout bounds each detail lookup.
	DefaultRadius   int            // DefaultRadius is used when a request gives no radius, in meters.
	DefaultCategory string         // DefaultCategory is used when a request gives no category.
	Database        PostgresConfig // Database holds the postgres database configuration
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether telemetry storage was configured.
func (pc PostgresConfig) Enabled() bool {
	return pc.Host != ""
}

// MustLoad loads the configuration from the environment and an optional .env file.
func MustLoad() *Config {
	_ = godotenv.Load()

	httpPort := mustInt("ASCLEPIUS_HTTP_PORT", "8080",
		"failed to parse port for API server from configuration")
	healthPort := mustInt("ASCLEPIUS_HEALTH_PORT", "8081",
		"failed to parse port for monitoring server from configuration")
	rateLimit := mustInt("ASCLEPIUS_PROVIDER_RATE_LIMIT", "10",
		"failed to parse provider rate limit from configuration, must be an integer")
	concurrency := mustInt("ASCLEPIUS_ENRICH_CONCURRENCY", "8",
		"failed to parse enrichment concurrency from configuration, must be an integer")
	radius := mustInt("ASCLEPIUS_DEFAULT_RADIUS", "8000",
		"failed to parse default radius from configuration, must be an integer")

	locateTimeout, err := time.ParseDuration(setDefaultEnv("ASCLEPIUS_LOCATE_TIMEOUT", "10s"))
	if err != nil {
		panic("failed to parse locate timeout from configuration")
	}

	searchTimeout, err := time.ParseDuration(setDefaultEnv("ASCLEPIUS_SEARCH_TIMEOUT", "20s"))
	if err != nil {
		panic("failed to parse search timeout from configuration")
	}

	detailTimeout, err := time.ParseDuration(setDefaultEnv("ASCLEPIUS_DETAIL_TIMEOUT", "5s"))
	if err != nil {
		panic("failed to parse detail timeout from configuration")
	}

	return &Config{
		Env:             setDefaultEnv("ASCLEPIUS_ENV", "production"),
		HTTPPort:        httpPort,
		HealthPort:      healthPort,
		ProviderType:    setDefaultEnv("ASCLEPIUS_PROVIDER_TYPE", "google"),
		APIKey:          os.Getenv("ASCLEPIUS_PROVIDER_KEY"),
		SearchEndpoint:  os.Getenv("ASCLEPIUS_SEARCH_ENDPOINT"),
		DetailEndpoint:  os.Getenv("ASCLEPIUS_DETAIL_ENDPOINT"),
		RateLimit:       rateLimit,
		GeocoderType:    setDefaultEnv("ASCLEPIUS_GEOCODER_TYPE", "nominatim"),
		Concurrency:     concurrency,
		LocateTimeout:   locateTimeout,
		SearchTimeout:   searchTimeout,
		DetailTimeout:   detailTimeout,
		DefaultRadius:   radius,
		DefaultCategory: setDefaultEnv("ASCLEPIUS_DEFAULT_CATEGORY", "hospital"),
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     setDefaultEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}

func mustInt(key, fallback, msg string) int {
	value, err := strconv.Atoi(setDefaultEnv(key, fallback))
	if err != nil {
		panic(msg)
	}

	return value
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
