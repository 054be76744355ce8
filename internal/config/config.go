package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Oracle   OracleConfig
	Official OfficialConfig
	Redis    RedisConfig
	Output   OutputConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type ScraperConfig struct {
	MaxItems     int
	Workers      int
	MaxRetries   int
	RateLimitMin time.Duration
	RateLimitMax time.Duration
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type OracleConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Concurrency  int
	RateLimitMin time.Duration
	RateLimitMax time.Duration
	CacheTTL     time.Duration
}

// OfficialConfig pins the reference product: the store marker identifies
// its record in a batch and the label names it inside the indicated-price
// string.
type OfficialConfig struct {
	URL         string
	StoreMarker string
	Label       string
}

type RedisConfig struct {
	// Addr empty disables the verdict cache.
	Addr     string
	Password string
	DB       int
}

type OutputConfig struct {
	Dir      string
	RunsFile string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Optional; explicit environment always wins over the .env file.
	_ = godotenv.Load()

	cfg := &Config{
		Scraper: ScraperConfig{
			MaxItems:     getIntOrDefault("SCRAPER_MAX_ITEMS", 20),
			Workers:      getIntOrDefault("SCRAPER_WORKERS", 3),
			MaxRetries:   getIntOrDefault("SCRAPER_MAX_RETRIES", 3),
			RateLimitMin: getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", 2*time.Second),
			RateLimitMax: getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 5*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "pt-BR,pt;q=0.9,en;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/Sao_Paulo"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "pt-BR"),
		},
		Oracle: OracleConfig{
			APIKey:       os.Getenv("GROQ_API_KEY"),
			BaseURL:      getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:        getEnvOrDefault("GROQ_MODEL", "openai/gpt-oss-20b"),
			Concurrency:  getIntOrDefault("ORACLE_CONCURRENCY", 4),
			RateLimitMin: getDurationOrDefault("ORACLE_RATE_LIMIT_MIN", 500*time.Millisecond),
			RateLimitMax: getDurationOrDefault("ORACLE_RATE_LIMIT_MAX", 1500*time.Millisecond),
			CacheTTL:     getDurationOrDefault("ORACLE_CACHE_TTL", 24*time.Hour),
		},
		Official: OfficialConfig{
			URL:         os.Getenv("OFFICIAL_PRODUCT_URL"),
			StoreMarker: getEnvOrDefault("OFFICIAL_STORE_MARKER", "Comprebel (Oficial)"),
			Label:       getEnvOrDefault("OFFICIAL_STORE_LABEL", "Comprebel"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Output: OutputConfig{
			Dir:      getEnvOrDefault("OUTPUT_DIR", "output"),
			RunsFile: getEnvOrDefault("RUNS_FILE", "output/runs.json"),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.Workers < 1 {
		return fmt.Errorf("SCRAPER_WORKERS must be at least 1")
	}

	if c.Scraper.MaxItems < 1 {
		return fmt.Errorf("SCRAPER_MAX_ITEMS must be at least 1")
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	if c.Oracle.Concurrency < 1 {
		return fmt.Errorf("ORACLE_CONCURRENCY must be at least 1")
	}

	if c.Oracle.APIKey != "" && c.Oracle.Model == "" {
		return fmt.Errorf("GROQ_MODEL is required when GROQ_API_KEY is set")
	}

	if c.Official.StoreMarker == "" {
		return fmt.Errorf("OFFICIAL_STORE_MARKER cannot be empty")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
