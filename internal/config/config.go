// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	custom_errors "github-trending/internal/errors"
	"github-trending/internal/model"
)

const (
	SourceScrape = "scrape"
	SourceSearch = "search"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DBPath             string        `mapstructure:"DB_PATH"`
	GithubToken        string        `mapstructure:"GITHUB_TOKEN"`
	Source             string        `mapstructure:"TRENDING_SOURCE"`
	TrendingURL        string        `mapstructure:"TRENDING_URL"`
	HTTPTimeout        time.Duration `mapstructure:"HTTP_TIMEOUT"`
	SpokenLanguageCode string        `mapstructure:"SPOKEN_LANGUAGE_CODE"`
	Language           string        `mapstructure:"PROGRAMMING_LANGUAGE"`
	SinceRaw           string        `mapstructure:"SINCE"`
	Since              model.Since   `mapstructure:"-"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"spoken_language_code": "SPOKEN_LANGUAGE_CODE",
	"language":             "PROGRAMMING_LANGUAGE",
	"since":                "SINCE",
	"db":                   "DB_PATH",
	"source":               "TRENDING_SOURCE",
	"log-level":            "LOG_LEVEL",
}

// RegisterFlags adds the command-line options to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("spoken_language_code", "en", "Spoken language code")
	fs.String("language", "", "Programming language, empty for all languages")
	fs.String("since", string(model.SinceDaily), "Time range: daily, weekly or monthly")
	fs.String("db", "trending_repos.db", "SQLite file path or postgres:// URL")
	fs.String("source", SourceScrape, "Trending source: scrape or search")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
}

// LoadConfig reads configuration from flags, environment variables and an optional .env file.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PATH", "trending_repos.db")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("TRENDING_SOURCE", SourceScrape)
	v.SetDefault("TRENDING_URL", "https://github.com/trending")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("SPOKEN_LANGUAGE_CODE", "en")
	v.SetDefault("PROGRAMMING_LANGUAGE", "")
	v.SetDefault("SINCE", string(model.SinceDaily))

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	since, err := model.ParseSince(cfg.SinceRaw)
	if err != nil {
		return nil, err
	}
	cfg.Since = since

	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	if cfg.Source != SourceScrape && cfg.Source != SourceSearch {
		return nil, &custom_errors.ErrUnsupportedSource{Source: cfg.Source}
	}

	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, errors.New("DB_PATH is a required configuration field")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT must be a positive duration")
	}

	return &cfg, nil
}

// Query returns the fetcher parameters described by the configuration.
func (c *Config) Query() model.Query {
	return model.Query{
		SpokenLanguageCode: c.SpokenLanguageCode,
		Language:           c.Language,
		Since:              c.Since,
	}
}
