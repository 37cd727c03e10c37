// Package config loads the governor's runtime settings from an optional YAML
// file and environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/layer-governor/internal/layer"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region backends
const (
	BackendGRPC   = "grpc"
	BackendOpenAI = "openai"
)

// DefaultSecretPath is read when OPENAI_API_KEY is not set.
const DefaultSecretPath = "/run/secrets/openai_api_key"

// #endregion backends

var validate = validator.New()

// #region config-struct
// Config is the complete runtime configuration.
type Config struct {
	Backend       string  `yaml:"backend" validate:"oneof=grpc openai"`
	CodecAddr     string  `yaml:"codec_addr" validate:"required_if=Backend grpc"`
	OpenAIKey     string  `yaml:"-"`
	OpenAIModel   string  `yaml:"openai_model"`
	OpenAIBaseURL string  `yaml:"openai_base_url" validate:"omitempty,url"`
	Temperature   float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens     int     `yaml:"max_tokens" validate:"gte=0"`
	RateLimit     float64 `yaml:"rate_limit" validate:"gte=0"` // generator calls per second, 0 = unlimited
	RateBurst     int     `yaml:"rate_burst" validate:"gte=0"`

	LayerTimeout  time.Duration      `yaml:"layer_timeout" validate:"gte=0"`
	Profile       string             `yaml:"profile" validate:"oneof=standard mystical"`
	Thresholds    *update.Thresholds `yaml:"thresholds"`
	MaxIterations int                `yaml:"max_iterations" validate:"gte=1,lte=10"`

	DBPath   string `yaml:"provenance_db"` // empty disables the decision log
	HTTPAddr string `yaml:"http_addr"`

	Layers []layer.LayerConfig `yaml:"layers"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend:       BackendGRPC,
		CodecAddr:     "localhost:50051",
		OpenAIModel:   "gpt-4o-mini",
		Temperature:   0.7,
		LayerTimeout:  60 * time.Second,
		Profile:       string(update.ProfileStandard),
		MaxIterations: 3,
		HTTPAddr:      ":8080",
	}
}

// #endregion config-struct

// #region errors
// ConfigError reports an invalid or incomplete configuration.
type ConfigError struct {
	Source string // "file", "env" or "validate"
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// #endregion errors

// #region load
// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds a Config from defaults, the YAML file named by GOVERNOR_CONFIG
// and the environment, then validates it.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("GOVERNOR_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, &ConfigError{Source: "file", Err: err}
		}
	}
	if err := cfg.mergeEnv(getenv); err != nil {
		return Config{}, &ConfigError{Source: "env", Err: err}
	}
	if len(cfg.Layers) == 0 {
		cfg.Layers = layer.DefaultCatalog()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, &ConfigError{Source: "validate", Err: err}
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(getenv func(string) string) error {
	setString(&c.Backend, getenv("GOVERNOR_BACKEND"))
	setString(&c.CodecAddr, getenv("CODEC_ADDR"))
	setString(&c.OpenAIModel, getenv("OPENAI_MODEL"))
	setString(&c.OpenAIBaseURL, getenv("OPENAI_BASE_URL"))
	setString(&c.Profile, getenv("GOVERNOR_PROFILE"))
	setString(&c.DBPath, getenv("GOVERNOR_DB"))
	setString(&c.HTTPAddr, getenv("GOVERNOR_HTTP_ADDR"))

	c.OpenAIKey = strings.TrimSpace(getenv("OPENAI_API_KEY"))
	if c.OpenAIKey == "" && c.Backend == BackendOpenAI {
		path := getenv("OPENAI_API_KEY_FILE")
		if path == "" {
			path = DefaultSecretPath
		}
		if data, err := os.ReadFile(path); err == nil {
			c.OpenAIKey = strings.TrimSpace(string(data))
		}
	}

	if v := getenv("GOVERNOR_LAYER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOVERNOR_LAYER_TIMEOUT: %w", err)
		}
		c.LayerTimeout = d
	}
	if v := getenv("GOVERNOR_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GOVERNOR_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v := getenv("GOVERNOR_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOVERNOR_MAX_ITERATIONS: %w", err)
		}
		c.MaxIterations = n
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// #endregion load

// #region validate
// ErrMissingCredential is returned when the openai backend has no API key.
var ErrMissingCredential = errors.New("openai backend selected but no API key found")

// Validate checks field constraints, the layer list and backend credentials.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Thresholds != nil {
		if err := validate.Struct(c.Thresholds); err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
	}
	if err := layer.Validate(c.Layers); err != nil {
		return err
	}
	if c.Backend == BackendOpenAI && c.OpenAIKey == "" {
		return ErrMissingCredential
	}
	return nil
}

// ProfileValue returns Profile as a typed profile.
func (c Config) ProfileValue() update.Profile {
	p, _ := update.ParseProfile(c.Profile)
	return p
}

// #endregion validate
