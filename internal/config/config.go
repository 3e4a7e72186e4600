package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOMDB = "omdb"
	ProviderMock = "mock"
)

var (
	ErrInvalidPageSize    = errors.New("search page size must be positive")
	ErrInvalidInitialPage = errors.New("search initial page must be positive")
	ErrInvalidDebounce    = errors.New("search debounce must not be negative")
	ErrUnknownProvider    = errors.New("unknown directory provider")
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Search    SearchConfig    `mapstructure:"search"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DirectoryConfig selects and configures the remote movie directory.
type DirectoryConfig struct {
	Provider string     `mapstructure:"provider"`
	OMDB     OMDBConfig `mapstructure:"omdb"`
}

// OMDBConfig holds OMDb API configuration.
type OMDBConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// SearchConfig holds incremental search tuning.
type SearchConfig struct {
	DebounceMs  int `mapstructure:"debounce_ms"`
	InitialPage int `mapstructure:"initial_page"`
	PageSize    int `mapstructure:"page_size"`
}

// Debounce returns the debounce delay as a duration.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// HealthConfig holds directory health check scheduling.
type HealthConfig struct {
	Cron string `mapstructure:"cron"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Directory: DirectoryConfig{
			Provider: ProviderOMDB,
			OMDB: OMDBConfig{
				APIKey:  EmbeddedOMDBKey,
				BaseURL: "https://www.omdbapi.com/",
				Timeout: 10,
			},
		},
		Search: SearchConfig{
			DebounceMs:  1000,
			InitialPage: 1,
			PageSize:    10,
		},
		Health: HealthConfig{
			Cron: "*/15 * * * *",
		},
	}
}

// Load reads configuration from a .env file, the config file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	// .env is optional; values already present in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.moviefinder")
	}

	v.SetEnvPrefix("MOVIEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Directory.OMDB.APIKey == "" {
		cfg.Directory.OMDB.APIKey = EmbeddedOMDBKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would make the search coordinator misbehave.
func (c *Config) Validate() error {
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, c.Search.PageSize)
	}
	if c.Search.InitialPage <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInitialPage, c.Search.InitialPage)
	}
	if c.Search.DebounceMs < 0 {
		return fmt.Errorf("%w: %dms", ErrInvalidDebounce, c.Search.DebounceMs)
	}
	switch c.Directory.Provider {
	case ProviderOMDB, ProviderMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Directory.Provider)
	}
	return nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("directory.provider", d.Directory.Provider)
	v.SetDefault("directory.omdb.api_key", "")
	v.SetDefault("directory.omdb.base_url", d.Directory.OMDB.BaseURL)
	v.SetDefault("directory.omdb.timeout", d.Directory.OMDB.Timeout)

	v.SetDefault("search.debounce_ms", d.Search.DebounceMs)
	v.SetDefault("search.initial_page", d.Search.InitialPage)
	v.SetDefault("search.page_size", d.Search.PageSize)

	v.SetDefault("health.cron", d.Health.Cron)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
