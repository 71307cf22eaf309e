package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/auth"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds the complete client configuration, loadable from
// environment variables (FOODHUB_ prefix) or YAML config files.
type Config struct {
	APIURL  string `yaml:"api_url" env:"API_URL" default:"http://localhost:5000/api" usage:"REST API base URL" flag:"api-url"`
	AuthURL string `yaml:"auth_url" env:"AUTH_URL" default:"http://localhost:5000" usage:"Auth service base URL" flag:"auth-url"`
	// ImgBBKey enables image uploads for meals and profiles.
	ImgBBKey string      `yaml:"imgbb_key" env:"IMGBB_KEY" usage:"ImgBB API key (FOODHUB_IMGBB_KEY)" flag:"imgbb-key"`
	Store    StoreConfig `yaml:"store" env:"STORE"`
	List     ListConfig  `yaml:"list" env:"LIST"`
	HTTP     HTTPConfig  `yaml:"http" env:"HTTP"`
}

// StoreConfig selects where the cart and session are kept.
type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND" default:"file" usage:"Store backend: file, memory, redis or postgres"`
	// Dir is the file backend directory. Defaults to the user config dir.
	Dir         string `yaml:"dir" env:"DIR" usage:"File store directory"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL" usage:"Redis URL for the redis backend" flag:"redis-url"`
	PostgresURL string `yaml:"postgres_url" env:"POSTGRES_URL" usage:"PostgreSQL URL for the postgres backend" flag:"postgres-url"`
	// Namespace separates terminals sharing one redis or postgres store.
	Namespace string `yaml:"namespace" env:"NAMESPACE" default:"default" usage:"Key namespace for shared stores"`
}

// ListConfig tunes paginated list views.
type ListConfig struct {
	PageSize int           `yaml:"page_size" env:"PAGE_SIZE" default:"9" usage:"Items per page"`
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE" default:"300ms" usage:"Delay before an edited query is fetched"`
}

// HTTPConfig tunes outbound requests.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" default:"15s" usage:"Request timeout"`
	// RateLimit caps requests per window per host; 0 disables it.
	RateLimit       int           `yaml:"rate_limit" env:"RATE_LIMIT" default:"0" usage:"Max requests per window" flag:"rate-limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window" env:"RATE_LIMIT_WINDOW" default:"1m" usage:"Rate limit window duration" flag:"rate-limit-window"`
}

// ConfigFiles returns the YAML files consulted, lowest priority first.
// Later files override the keys they set; missing files are skipped.
func ConfigFiles() []string {
	files := []string{"/etc/foodhub/config.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "foodhub", "config.yaml"))
	}
	return append(files, "foodhub.yaml")
}

// LoadConfig loads configuration from YAML config files and environment
// variables. An explicit file must exist and takes precedence over the
// default files; environment variables override every file.
func LoadConfig(file string) (*Config, error) {
	files := ConfigFiles()
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, errors.Wrap(err, "config file")
		}
		files = append(files, file)
	}
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:          "FOODHUB",
		SkipFlags:          true,
		AllowUnknownFields: true,
		MergeFiles:         true,
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the loader cannot.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		c.APIURL = api.DefaultBaseURL
	}
	if c.AuthURL == "" {
		c.AuthURL = auth.DefaultBaseURL
	}
	switch c.Store.Backend {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return errors.New("redis store requires a redis URL")
		}
	case StorePostgres:
		if c.Store.PostgresURL == "" {
			return errors.New("postgres store requires a postgres URL")
		}
	default:
		return errors.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.List.PageSize < 1 {
		return errors.Errorf("page size must be positive, got %d", c.List.PageSize)
	}
	return nil
}
