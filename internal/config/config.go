// Package config assembles the weather bot configuration on top of the
// core Telegram config.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zoneinfo for weather.timezone

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
)

// WeatherConfig configures the forecast provider.
type WeatherConfig struct {
	APIKey   string        `yaml:"api_key" envconfig:"WEATHER_API"`
	BaseURL  string        `yaml:"base_url" envconfig:"WEATHER_BASE_URL"`
	Timezone string        `yaml:"timezone" envconfig:"WEATHER_TIMEZONE"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"WEATHER_TIMEOUT"`
	Retries  int           `yaml:"retries" envconfig:"WEATHER_RETRIES"`
}

// SessionConfig tunes the conversation state machine.
type SessionConfig struct {
	InactivityTimeout time.Duration `yaml:"inactivity_timeout" envconfig:"SESSION_INACTIVITY_TIMEOUT"`
	PromptDelay       time.Duration `yaml:"prompt_delay" envconfig:"SESSION_PROMPT_DELAY"`
}

// CacheConfig enables the Redis forecast cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	TTL      time.Duration `yaml:"ttl" envconfig:"CACHE_TTL"`
}

// HTTPConfig configures the health listener. Port mirrors the PORT
// variable common on PaaS hosts and only applies when Listen is empty.
type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	Port   string `yaml:"port" envconfig:"PORT"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Weather  WeatherConfig       `yaml:"weather"`
	Session  SessionConfig       `yaml:"session"`
	Cache    CacheConfig         `yaml:"cache"`
	HTTP     HTTPConfig          `yaml:"http"`
}

const (
	DefaultWeatherBaseURL    = "https://api.openweathermap.org/data/2.5/forecast"
	DefaultTimezone          = "Asia/Kolkata"
	DefaultInactivityTimeout = 5 * time.Minute
	DefaultPromptDelay       = time.Second
	DefaultCacheTTL          = 10 * time.Minute
	DefaultHTTPListen        = ":5000"
)

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads path (may be empty) and the environment, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Weather.APIKey) == "" {
		return fmt.Errorf("weather.api_key is required")
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = DefaultWeatherBaseURL
	}
	if c.Weather.Timezone == "" {
		c.Weather.Timezone = DefaultTimezone
	}
	if _, err := time.LoadLocation(c.Weather.Timezone); err != nil {
		return fmt.Errorf("weather.timezone: %w", err)
	}
	if c.Weather.Timeout <= 0 {
		c.Weather.Timeout = 10 * time.Second
	}
	if c.Weather.Retries < 0 {
		return fmt.Errorf("weather.retries must be >= 0")
	}

	if c.Session.InactivityTimeout <= 0 {
		c.Session.InactivityTimeout = DefaultInactivityTimeout
	}
	if c.Session.PromptDelay < 0 {
		return fmt.Errorf("session.prompt_delay must be >= 0")
	}
	if c.Session.PromptDelay == 0 {
		c.Session.PromptDelay = DefaultPromptDelay
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.HTTP.Listen == "" {
		if p := strings.TrimSpace(c.HTTP.Port); p != "" {
			c.HTTP.Listen = ":" + p
		} else {
			c.HTTP.Listen = DefaultHTTPListen
		}
	}
	return nil
}
