// Package config loads the application configuration from an optional YAML
// file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"yieldcurve-lab/internal/analytics"
	"yieldcurve-lab/internal/curve"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is passed explicitly into each component.
type Config struct {
	DBURL     string             `yaml:"db_url" default:"sqlite:///yield_curves.db" validate:"required"`
	CurveName string             `yaml:"curve_name" default:"UST" validate:"required"`
	Series    curve.SeriesMap    `yaml:"series" validate:"unique=Tenor,dive"`
	Metrics   []analytics.Metric `yaml:"metrics" validate:"unique=Name,dive"`
	FRED      FREDConfig         `yaml:"fred"`
	Log       LogConfig          `yaml:"log"`
}

// FREDConfig configures the series fetcher. APIKey is checked when the
// fetcher is built, so commands that never fetch run without one.
type FREDConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" default:"3" validate:"gte=0"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"1s" validate:"gte=0"`
	MaxDelay   time.Duration `yaml:"max_delay" default:"10s" validate:"gte=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stderr" validate:"required"` // stdout, stderr or a file path
}

// Override mutates a loaded config before validation, e.g. from CLI flags.
type Override func(*Config)

var validate = validator.New()

// Load builds the config: .env, struct defaults, the YAML file at path (if
// non-empty), environment overrides, then overrides in order. The result is
// validated.
func Load(path string, overrides ...Override) (*Config, error) {
	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&c)
	for _, o := range overrides {
		o(&c)
	}

	if len(c.Series) == 0 {
		c.Series = append(curve.SeriesMap(nil), curve.DefaultUSTSeries...)
	}
	if len(c.Metrics) == 0 {
		c.Metrics = append([]analytics.Metric(nil), analytics.DefaultMetrics...)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// applyEnvOverrides overwrites fields whose environment variable is set.
func applyEnvOverrides(c *Config) {
	setStr(&c.FRED.APIKey, "FRED_API_KEY")
	setStr(&c.FRED.BaseURL, "FRED_BASE_URL")
	setStr(&c.DBURL, "DB_URL")
	setStr(&c.CurveName, "YIELDCURVE_CURVE_NAME")
	setStr(&c.Log.Level, "YIELDCURVE_LOG_LEVEL")
	setStr(&c.Log.Format, "YIELDCURVE_LOG_FORMAT")
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
