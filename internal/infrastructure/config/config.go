package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default service hosts observed in production
const (
	DefaultUsersURL         = "https://r4o40joe79.execute-api.us-east-1.amazonaws.com/dev"
	DefaultProductsURL      = "https://cefdblvoi7.execute-api.us-east-1.amazonaws.com/dev"
	DefaultProductsAdminURL = "https://sh7pqkg24f.execute-api.us-east-1.amazonaws.com/dev"
	DefaultCartURL          = "https://726nsxq3m7.execute-api.us-east-1.amazonaws.com/dev"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	History   HistoryConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// APIConfig describes the remote storefront services. BaseURL, when set,
// replaces every per-group URL that was not configured explicitly.
type APIConfig struct {
	BaseURL          string
	UsersURL         string
	ProductsURL      string
	ProductsAdminURL string
	CartURL          string
	HistoryURL       string
	ProductsAuth     string // raw or bearer
	CartAuth         string
	HistoryAuth      string
	Timeout          time.Duration
	UserAgent        string
	MaxResponseSize  int64
	RateLimit        float64 // requests per second, 0 = unlimited
	RateBurst        int
}

// StorageConfig selects where client state is persisted
type StorageConfig struct {
	Driver    string // sqlite, postgres, redis, memory
	Path      string // sqlite file
	DSN       string // postgres connection string
	Namespace string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CatalogConfig holds catalog loader settings
type CatalogConfig struct {
	MinSearchLength int
	MaxStockPages   int // pages walked when looking up live stock
}

// HistoryConfig holds purchase history settings
type HistoryConfig struct {
	PageSize int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds view server configuration
type HTTPConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MetricsEnabled bool // serve Prometheus metrics on /metrics
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	Exporter          string // otlp, stdout
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
}

// Load loads configuration from storefront.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix, including those set by .env
// 2. The config file (explicit path, or storefront.toml in . or ~/.storefront)
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".storefront"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		API: APIConfig{
			BaseURL:          v.GetString("api.base_url"),
			UsersURL:         v.GetString("api.users_url"),
			ProductsURL:      v.GetString("api.products_url"),
			ProductsAdminURL: v.GetString("api.products_admin_url"),
			CartURL:          v.GetString("api.cart_url"),
			HistoryURL:       v.GetString("api.history_url"),
			ProductsAuth:     v.GetString("api.products_auth"),
			CartAuth:         v.GetString("api.cart_auth"),
			HistoryAuth:      v.GetString("api.history_auth"),
			Timeout:          v.GetDuration("api.timeout"),
			UserAgent:        v.GetString("api.user_agent"),
			MaxResponseSize:  v.GetInt64("api.max_response_size"),
			RateLimit:        v.GetFloat64("api.rate_limit"),
			RateBurst:        v.GetInt("api.rate_burst"),
		},
		Storage: StorageConfig{
			Driver:    v.GetString("storage.driver"),
			Path:      v.GetString("storage.path"),
			DSN:       v.GetString("storage.dsn"),
			Namespace: v.GetString("storage.namespace"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Catalog: CatalogConfig{
			MinSearchLength: v.GetInt("catalog.min_search_length"),
			MaxStockPages:   v.GetInt("catalog.max_stock_pages"),
		},
		History: HistoryConfig{
			PageSize: v.GetInt("history.page_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			Addr:           v.GetString("http.addr"),
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			MetricsEnabled: v.GetBool("http.metrics_enabled"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			Exporter:          v.GetString("telemetry.exporter"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}

	api := &cfg.API
	api.BaseURL = strings.TrimRight(api.BaseURL, "/")
	defaultURL := func(field *string, fallback string) {
		switch {
		case *field != "":
			*field = strings.TrimRight(*field, "/")
		case api.BaseURL != "":
			*field = api.BaseURL
		default:
			*field = fallback
		}
	}
	defaultURL(&api.UsersURL, DefaultUsersURL)
	defaultURL(&api.ProductsURL, DefaultProductsURL)
	defaultURL(&api.ProductsAdminURL, DefaultProductsAdminURL)
	defaultURL(&api.CartURL, DefaultCartURL)
	defaultURL(&api.HistoryURL, api.CartURL)
	if api.ProductsAuth == "" {
		api.ProductsAuth = "bearer"
	}
	if api.CartAuth == "" {
		api.CartAuth = "raw"
	}
	if api.HistoryAuth == "" {
		api.HistoryAuth = "bearer"
	}
	if api.Timeout == 0 {
		api.Timeout = 15 * time.Second
	}
	if api.UserAgent == "" {
		api.UserAgent = "storefront-cli/1.0"
	}
	if api.MaxResponseSize == 0 {
		api.MaxResponseSize = 10 << 20
	}
	if api.RateLimit > 0 && api.RateBurst < 1 {
		api.RateBurst = 1
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath()
	}
	if cfg.Storage.Namespace == "" {
		cfg.Storage.Namespace = "default"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "storefront:"
	}

	if cfg.Catalog.MinSearchLength == 0 {
		cfg.Catalog.MinSearchLength = 2
	}
	if cfg.Catalog.MaxStockPages == 0 {
		cfg.Catalog.MaxStockPages = 50
	}
	if cfg.History.PageSize == 0 {
		cfg.History.PageSize = 10
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = "127.0.0.1:8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}

	if cfg.Telemetry.Exporter == "" {
		cfg.Telemetry.Exporter = "otlp"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storefront"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".storefront", "storage.db")
	}
	return filepath.Join(home, ".storefront", "storage.db")
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	for name, style := range map[string]string{
		"api.products_auth": c.API.ProductsAuth,
		"api.cart_auth":     c.API.CartAuth,
		"api.history_auth":  c.API.HistoryAuth,
	} {
		if style != "raw" && style != "bearer" {
			return fmt.Errorf("%s must be 'raw' or 'bearer', got %q", name, style)
		}
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	switch c.Storage.Driver {
	case "sqlite", "redis", "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of sqlite, postgres, redis, memory, got %q", c.Storage.Driver)
	}

	if c.History.PageSize < 1 || c.History.PageSize > 100 {
		return fmt.Errorf("history.page_size must be between 1 and 100, got %d", c.History.PageSize)
	}
	if c.Catalog.MinSearchLength < 1 {
		return fmt.Errorf("catalog.min_search_length must be positive")
	}

	switch c.Telemetry.Exporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("telemetry.exporter must be 'otlp' or 'stdout', got %q", c.Telemetry.Exporter)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}
