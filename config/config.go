package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig selects the log level and encoder
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// PipelineConfig tunes the extraction pipeline
type PipelineConfig struct {
	Workers              int           `mapstructure:"workers"`
	GoodEnoughItems      int           `mapstructure:"good_enough_items"`
	QualityBar           float64       `mapstructure:"quality_bar"`
	StepTimeout          time.Duration `mapstructure:"step_timeout"`
	RestaurantBudget     time.Duration `mapstructure:"restaurant_budget"`
	MinNameLength        int           `mapstructure:"min_name_length"`
	MaxNameLength        int           `mapstructure:"max_name_length"`
	MaxDescriptionLength int           `mapstructure:"max_description_length"`
	SimilarityThreshold  float64       `mapstructure:"similarity_threshold"`
	PriceTolerance       float64       `mapstructure:"price_tolerance"`
}

// FetchConfig holds the page and image downloader settings
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	MaxAttempts   uint          `mapstructure:"max_attempts"`
	MaxPageBytes  int64         `mapstructure:"max_page_bytes"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

// DiscoveryConfig holds the web search API configuration. Discovery is
// disabled unless both the key and the engine id are set.
type DiscoveryConfig struct {
	APIKey     string `mapstructure:"api_key"`
	EngineID   string `mapstructure:"engine_id"`
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
	MinScore   int    `mapstructure:"min_score"`
}

// Enabled reports whether discovery credentials are configured
func (d DiscoveryConfig) Enabled() bool {
	return d.APIKey != "" && d.EngineID != ""
}

// OCRConfig holds the tesseract settings
type OCRConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Binary        string        `mapstructure:"binary"`
	Language      string        `mapstructure:"language"`
	PSM           int           `mapstructure:"psm"`
	TessdataDir   string        `mapstructure:"tessdata_dir"`
	MaxImages     int           `mapstructure:"max_images"`
	MinImageArea  int           `mapstructure:"min_image_area"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type            string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL        string        `mapstructure:"redis_url"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	TTL             time.Duration `mapstructure:"ttl"`
	NegativeTTL     time.Duration `mapstructure:"negative_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DictionaryConfig points at an optional classifier vocabulary file
type DictionaryConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// RateLimitConfig holds rate limiting configuration. PerIP is requests per
// minute on the HTTP API; the others are requests per second.
type RateLimitConfig struct {
	PerIP     int     `mapstructure:"per_ip"`
	Fetch     float64 `mapstructure:"fetch"`
	Discovery float64 `mapstructure:"discovery"`
	OCR       float64 `mapstructure:"ocr"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/menulens/")

	// MENULENS_PIPELINE_WORKERS -> pipeline.workers
	v.SetEnvPrefix("MENULENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.good_enough_items", 5)
	v.SetDefault("pipeline.quality_bar", 0.5)
	v.SetDefault("pipeline.step_timeout", "30s")
	v.SetDefault("pipeline.restaurant_budget", "3m")
	v.SetDefault("pipeline.min_name_length", 2)
	v.SetDefault("pipeline.max_name_length", 120)
	v.SetDefault("pipeline.max_description_length", 500)
	v.SetDefault("pipeline.similarity_threshold", 0.9)
	v.SetDefault("pipeline.price_tolerance", 0.01)

	// Fetch defaults
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.max_page_bytes", 5<<20)
	v.SetDefault("fetch.max_image_bytes", 10<<20)

	// Discovery defaults
	v.SetDefault("discovery.api_key", "")
	v.SetDefault("discovery.engine_id", "")
	v.SetDefault("discovery.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("discovery.max_results", 5)
	v.SetDefault("discovery.min_score", 3)

	// OCR defaults
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.binary", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.psm", 0)
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.max_images", 5)
	v.SetDefault("ocr.min_image_area", 200*200)
	v.SetDefault("ocr.min_confidence", 0.3)
	v.SetDefault("ocr.call_timeout", "60s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "menulens:")
	v.SetDefault("cache.ttl", "168h") // 7 days
	v.SetDefault("cache.negative_ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Dictionary defaults
	v.SetDefault("dictionary.path", "")
	v.SetDefault("dictionary.watch", true)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.fetch", 2.0)
	v.SetDefault("ratelimit.discovery", 1.0)
	v.SetDefault("ratelimit.ocr", 1.0)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Log.Format != "" && config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	if config.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got: %d", config.Pipeline.Workers)
	}

	if config.Pipeline.QualityBar < 0 || config.Pipeline.QualityBar > 1 {
		return fmt.Errorf("pipeline quality bar must be within [0,1], got: %v", config.Pipeline.QualityBar)
	}

	if config.Pipeline.SimilarityThreshold <= 0 || config.Pipeline.SimilarityThreshold > 1 {
		return fmt.Errorf("pipeline similarity threshold must be within (0,1], got: %v", config.Pipeline.SimilarityThreshold)
	}

	if (config.Discovery.APIKey == "") != (config.Discovery.EngineID == "") {
		return fmt.Errorf("discovery needs both api_key and engine_id (set MENULENS_DISCOVERY_API_KEY and MENULENS_DISCOVERY_ENGINE_ID)")
	}

	return nil
}

// loadEnvFile copies KEY=VALUE pairs from ./.env into the environment.
// Variables that are already set win. A missing file is not an error.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
