package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Search    SearchConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	// ClickRatePerSecond and ClickBurst limit click tracking per client IP.
	ClickRatePerSecond float64
	ClickBurst         int
	// AllowedOrigins is a comma separated CORS allow list. "*" allows any origin.
	AllowedOrigins string
	// TrustedProxies lists proxy IPs and CIDRs whose forwarding headers
	// identify the client. Empty trusts none.
	TrustedProxies string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// SearchConfig holds query pipeline configuration
type SearchConfig struct {
	// Engine selects the search backend: "typesense" or "memory".
	Engine       string
	SynonymsPath string
	TuningPath   string
	// ArticlesPath seeds the in-memory engine.
	ArticlesPath string

	DefaultPageSize           int
	MaxPageSize               int
	RelatedLimit              int
	ClickLookbackMinutes      int
	SuggestionLimit           int
	SuggestionCacheTTLSeconds int
	// RescoreWindow is how many leading hits are ranked together before paging.
	RescoreWindow int
	// LocalCacheSize bounds the in-process cache used when Redis is disabled.
	LocalCacheSize int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			ClickRatePerSecond: getEnvAsFloat("CLICK_RATE_PER_SECOND", 5),
			ClickBurst:         getEnvAsInt("CLICK_BURST", 10),
			AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
			TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "helpdesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:        getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:     getEnv("TYPESENSE_API_KEY", "xyz"),
			Collection: getEnv("TYPESENSE_COLLECTION", "articles"),
		},
		Search: SearchConfig{
			Engine:                    strings.ToLower(getEnv("SEARCH_ENGINE", "memory")),
			SynonymsPath:              getEnv("SEARCH_SYNONYMS_PATH", "config/synonyms.json"),
			TuningPath:                getEnv("SEARCH_TUNING_PATH", "config/search.yaml"),
			ArticlesPath:              getEnv("SEARCH_ARTICLES_PATH", "config/articles.sample.json"),
			DefaultPageSize:           getEnvAsInt("SEARCH_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:               getEnvAsInt("SEARCH_MAX_PAGE_SIZE", 100),
			RelatedLimit:              getEnvAsInt("SEARCH_RELATED_LIMIT", 3),
			ClickLookbackMinutes:      getEnvAsInt("SEARCH_CLICK_LOOKBACK_MINUTES", 30),
			SuggestionLimit:           getEnvAsInt("SEARCH_SUGGESTION_LIMIT", 5),
			SuggestionCacheTTLSeconds: getEnvAsInt("SEARCH_SUGGESTION_CACHE_TTL", 300),
			RescoreWindow:             getEnvAsInt("SEARCH_RESCORE_WINDOW", 100),
			LocalCacheSize:            getEnvAsInt("SEARCH_LOCAL_CACHE_SIZE", 1024),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "helpdesk-search"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the search service cannot run with.
func (c *Config) Validate() error {
	switch c.Search.Engine {
	case "typesense", "memory":
	default:
		return fmt.Errorf("unsupported SEARCH_ENGINE %q", c.Search.Engine)
	}
	if c.Search.DefaultPageSize < 1 || c.Search.MaxPageSize < c.Search.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Search.ClickLookbackMinutes < 1 {
		return fmt.Errorf("SEARCH_CLICK_LOOKBACK_MINUTES must be positive")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
