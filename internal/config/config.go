package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "ORDERDESK_"

	DefaultAddr         = ":8080"
	DefaultPageSize     = 50
	DefaultStaleAfter   = 4
	DefaultRefetchDelay = time.Second
	DefaultAPITimeout   = 30 * time.Second
	DefaultCacheTTL     = 10 * time.Minute

	PolicyEngineCasbin = "casbin"
	PolicyEngineOPA    = "opa"
)

// Config holds all orderdesk configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Batch   BatchConfig   `yaml:"batch"`
	View    ViewConfig    `yaml:"view"`
	Policy  PolicyConfig  `yaml:"policy"`
	Journal JournalConfig `yaml:"journal"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// AllowedOrigins lists browser origins, besides the serving host, that may
	// open the notification stream.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// APIConfig holds the base URLs of the remote collaborators. BaseURL is the
// single source for every order view.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`     // .../api/v1/shopify
	CatalogURL  string        `yaml:"catalog_url"`  // colors and product catalog
	RegistryURL string        `yaml:"registry_url"` // cancelled-order registry
	Timeout     time.Duration `yaml:"timeout"`
}

// BatchConfig tunes the batch action dispatcher.
type BatchConfig struct {
	MaxInFlight  int           `yaml:"max_in_flight"` // 0 means unlimited
	RefetchDelay time.Duration `yaml:"refetch_delay"`
}

// ViewConfig tunes list views.
type ViewConfig struct {
	PageSize       int `yaml:"page_size"`
	StaleAfterDays int `yaml:"stale_after_days"`
}

// PolicyConfig selects the action policy engine.
type PolicyConfig struct {
	Engine   string `yaml:"engine"`    // casbin or opa
	MySQLDSN string `yaml:"mysql_dsn"` // optional casbin policy storage
	RegoPath string `yaml:"rego_path"` // optional OPA module replacing the built-in policy
}

// JournalConfig configures the action journal.
type JournalConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"` // empty keeps the journal in memory
}

// CacheConfig configures the catalog cache.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"` // empty keeps the cache in memory
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		API: APIConfig{
			Timeout: DefaultAPITimeout,
		},
		Batch: BatchConfig{
			RefetchDelay: DefaultRefetchDelay,
		},
		View: ViewConfig{
			PageSize:       DefaultPageSize,
			StaleAfterDays: DefaultStaleAfter,
		},
		Policy: PolicyConfig{
			Engine: PolicyEngineCasbin,
		},
		Cache: CacheConfig{
			TTL: DefaultCacheTTL,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// a .env file in the working directory and ORDERDESK_* environment variables,
// in increasing order of precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	for name, raw := range map[string]string{
		"api.base_url":     c.API.BaseURL,
		"api.catalog_url":  c.API.CatalogURL,
		"api.registry_url": c.API.RegistryURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if c.Batch.MaxInFlight < 0 {
		return errors.New("batch.max_in_flight must not be negative")
	}
	if c.View.PageSize <= 0 {
		return errors.New("view.page_size must be positive")
	}
	if c.View.StaleAfterDays < 0 {
		return errors.New("view.stale_after_days must not be negative")
	}

	switch c.Policy.Engine {
	case PolicyEngineCasbin, PolicyEngineOPA:
	default:
		return fmt.Errorf("policy.engine must be %q or %q, got %q", PolicyEngineCasbin, PolicyEngineOPA, c.Policy.Engine)
	}

	return nil
}

// SlogLevel maps the configured level name to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.API.BaseURL, "API_BASE_URL")
	setString(&c.API.CatalogURL, "API_CATALOG_URL")
	setString(&c.API.RegistryURL, "API_REGISTRY_URL")
	setString(&c.Policy.Engine, "POLICY_ENGINE")
	setString(&c.Policy.MySQLDSN, "POLICY_MYSQL_DSN")
	setString(&c.Policy.RegoPath, "POLICY_REGO_PATH")
	setString(&c.Journal.PostgresDSN, "JOURNAL_POSTGRES_DSN")
	setString(&c.Cache.RedisAddr, "CACHE_REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "CACHE_REDIS_PASSWORD")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setList(&c.Server.AllowedOrigins, "SERVER_ALLOWED_ORIGINS")

	if err := setDuration(&c.API.Timeout, "API_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Batch.RefetchDelay, "BATCH_REFETCH_DELAY"); err != nil {
		return err
	}
	if err := setDuration(&c.Cache.TTL, "CACHE_TTL"); err != nil {
		return err
	}
	if err := setInt(&c.Batch.MaxInFlight, "BATCH_MAX_IN_FLIGHT"); err != nil {
		return err
	}
	if err := setInt(&c.View.PageSize, "VIEW_PAGE_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.View.StaleAfterDays, "VIEW_STALE_AFTER_DAYS"); err != nil {
		return err
	}
	return setInt(&c.Cache.RedisDB, "CACHE_REDIS_DB")
}

func setString(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

// setList reads a comma-separated value, dropping blank entries.
func setList(dst *[]string, key string) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return
	}

	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}
