// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Loader  LoaderConfig  `mapstructure:"loader"`
	Scraper ScraperConfig `mapstructure:"scraper"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// LoaderConfig points at the spreadsheet read once at start-up.
type LoaderConfig struct {
	Path        string `mapstructure:"path"`
	Sheet       string `mapstructure:"sheet"`
	DefaultText string `mapstructure:"default_text"`
	// Required makes a missing source file fatal instead of starting empty.
	Required bool `mapstructure:"required"`
}

// ScraperConfig configures the upstream review site and its markup.
type ScraperConfig struct {
	URLTemplate    string          `mapstructure:"url_template"`
	UserAgent      string          `mapstructure:"user_agent"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds"`
	RespectRobots  bool            `mapstructure:"respect_robots"`
	DefaultRating  float64         `mapstructure:"default_rating"`
	Selectors      SelectorsConfig `mapstructure:"selectors"`
}

// SelectorsConfig holds the CSS selectors used to extract reviews.
type SelectorsConfig struct {
	Container string `mapstructure:"container"`
	Reviewer  string `mapstructure:"reviewer"`
	Text      string `mapstructure:"text"`
	Rating    string `mapstructure:"rating"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REVIEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Container platforms inject PORT; it wins over file and REVIEWS_ values.
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("parse PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("loader.path", "data/reviews.xlsx")
	v.SetDefault("loader.sheet", "")
	v.SetDefault("loader.default_text", "No comment provided")
	v.SetDefault("loader.required", false)
	v.SetDefault("scraper.url_template", "https://www.justeat.it/domicilio-%s/reviews")
	v.SetDefault("scraper.user_agent", "restaurant-reviews/0.1")
	v.SetDefault("scraper.timeout_seconds", 15)
	v.SetDefault("scraper.respect_robots", false)
	v.SetDefault("scraper.default_rating", 0)
	v.SetDefault("scraper.selectors.container", "div.review-container")
	v.SetDefault("scraper.selectors.reviewer", "span.reviewer-name")
	v.SetDefault("scraper.selectors.text", "p.review-text")
	v.SetDefault("scraper.selectors.rating", "span.review-rating")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Loader.Required && c.Loader.Path == "" {
		return fmt.Errorf("loader.path must be set when loader.required is true")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if strings.Count(c.Scraper.URLTemplate, "%s") != 1 {
		return fmt.Errorf("scraper.url_template must contain exactly one %%s placeholder")
	}
	if c.Scraper.Selectors.Container == "" || c.Scraper.Selectors.Text == "" {
		return fmt.Errorf("scraper.selectors.container and scraper.selectors.text are required")
	}
	if c.Scraper.DefaultRating < 0 || c.Scraper.DefaultRating > 5 {
		return fmt.Errorf("scraper.default_rating must be within [0, 5]")
	}
	return nil
}

// RequestTimeout converts the server timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// ScrapeTimeout converts the upstream fetch timeout into a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}
