// Package config loads pathway's settings from pathway.yaml, a .env file and
// PATHWAY_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/reveal"
)

// EnvPrefix prefixes every environment override, e.g. PATHWAY_SERVER_ADDRESS.
const EnvPrefix = "PATHWAY"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Reveal    RevealConfig    `mapstructure:"reveal"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	OTel      OTelConfig      `mapstructure:"otel"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the ledger backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	Path   string `mapstructure:"path"`   // sqlite file
	URL    string `mapstructure:"url"`    // postgres DSN
}

type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

type CalendarConfig struct {
	DefaultTimezone string `mapstructure:"default_timezone"`
}

type RevealConfig struct {
	Policy         string  `mapstructure:"policy"`
	WordsPerSecond float64 `mapstructure:"words_per_second"`
}

// RateLimitConfig limits completion commands per user.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type OTelConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "pathway.db")
	v.SetDefault("database.url", "")
	v.SetDefault("catalog.dir", "./catalog")
	v.SetDefault("calendar.default_timezone", "UTC")
	v.SetDefault("reveal.policy", string(reveal.Manual))
	v.SetDefault("reveal.words_per_second", reveal.DefaultWordsPerSecond)
	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 30)
	v.SetDefault("log.mode", "dev")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", false)
	v.SetDefault("otel.sample_ratio", 0.1)
}

// Load reads configuration. When path is empty, pathway.yaml is searched in
// ./config and the working directory; a missing file is not an error. When
// path is set the file must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pathway")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in defaults without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown database.driver %q (want sqlite or postgres)", c.Database.Driver)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: calendar.default_timezone: %w", err)
	}
	if _, err := reveal.ParsePolicy(c.Reveal.Policy); err != nil {
		return fmt.Errorf("config: reveal.policy: %w", err)
	}
	if c.Reveal.WordsPerSecond <= 0 {
		return fmt.Errorf("config: reveal.words_per_second must be positive, got %v", c.Reveal.WordsPerSecond)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("config: ratelimit needs rps > 0 and burst >= 1, got %v/%d", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		return fmt.Errorf("config: otel.sample_ratio must be within [0, 1], got %v", c.OTel.SampleRatio)
	}
	return nil
}

// Location loads the default time zone.
func (c *Config) Location() (*time.Location, error) {
	return calendar.LoadLocation(c.Calendar.DefaultTimezone)
}
