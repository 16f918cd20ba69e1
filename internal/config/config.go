// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables (GOOGLE_API_KEY and HAPPYTREE_* overrides)
//  2. A .env file in the working directory (loaded into the environment)
//  3. Config file (~/.happytree/config.yaml or ./config.yaml)
//  4. Default values
//
// The Google AI API key is the only secret. It is masked in MarshalJSON and
// String; validation fails fast when it is absent so no server or agent is
// ever constructed without a credential.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Google AI API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidAddr indicates the listen address is invalid.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidUploadLimit indicates the upload size limit is out of range.
	ErrInvalidUploadLimit = errors.New("invalid upload limit")
)

const (
	// DefaultModelName is the Gemini model backing the assistant.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultTemperature keeps plant diagnoses close to the literature
	// rather than creative.
	DefaultTemperature float32 = 0.2

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = ":8080"

	// DefaultMaxUploadBytes caps a single photo upload (8 MiB).
	DefaultMaxUploadBytes int64 = 8 << 20
)

// APIKeyInstructions is printed when the credential gate fails, so the user
// knows how to proceed.
const APIKeyInstructions = "GOOGLE_API_KEY environment variable is required\n" +
	"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key\n" +
	"Then export it, or place GOOGLE_API_KEY=<key> in a .env file"

// TelemetryConfig configures optional OTLP trace export. Empty Endpoint
// disables export entirely.
type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	Environment string `mapstructure:"environment" json:"environment"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON. When
// adding new sensitive fields, update MarshalJSON and tag them sensitive.
type Config struct {
	// Google AI credential. Loaded from GOOGLE_API_KEY (or GEMINI_API_KEY).
	APIKey string `mapstructure:"api_key" json:"api_key" sensitive:"true"`

	// Model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`

	// HTTP server configuration
	Addr           string `mapstructure:"addr" json:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" json:"max_upload_bytes"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`

	// Observability configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`
}

// Load loads configuration.
// Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	// A .env in the working directory feeds the environment before any
	// binding happens. Absence is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join(home, ".happytree"))
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("temperature", DefaultTemperature)
	viper.SetDefault("addr", DefaultAddr)
	viper.SetDefault("max_upload_bytes", DefaultMaxUploadBytes)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)

	viper.SetDefault("telemetry.endpoint", "")
	viper.SetDefault("telemetry.environment", "dev")
	viper.SetDefault("telemetry.service_name", "happytree")
}

// bindEnvVariables binds environment variables explicitly. The credential
// accepts both GOOGLE_API_KEY (primary) and GEMINI_API_KEY (the name the
// Gemini SDK also honors); the first non-empty value wins.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key string, envVars ...string) {
		if err := viper.BindEnv(append([]string{key}, envVars...)...); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q: %v", key, err))
		}
	}

	mustBind("api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	mustBind("model_name", "HAPPYTREE_MODEL_NAME")
	mustBind("temperature", "HAPPYTREE_TEMPERATURE")
	mustBind("addr", "HAPPYTREE_ADDR")
	mustBind("log_level", "HAPPYTREE_LOG_LEVEL")
	mustBind("log_json", "HAPPYTREE_LOG_JSON")
	mustBind("telemetry.endpoint", "HAPPYTREE_OTLP_ENDPOINT")
	mustBind("telemetry.environment", "HAPPYTREE_ENVIRONMENT")
}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: %s", ErrMissingAPIKey, APIKeyInstructions)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range per the Gemini API: 0.0 (deterministic) to 2.0.
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.Addr == "" {
		return fmt.Errorf("%w: addr cannot be empty", ErrInvalidAddr)
	}

	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidUploadLimit, c.MaxUploadBytes)
	}

	return nil
}

// FullModelName returns the provider-qualified model name for Genkit,
// e.g. "googleai/gemini-2.5-flash". A name that already contains a "/" is
// returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return "googleai/" + c.ModelName
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks (U+2588) cannot collide with substrings of a real key.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 bytes or
// fewer are fully masked so no substring of the original survives; longer
// secrets keep the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit masking of the API
// key. Fields added later must be masked here if sensitive.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.APIKey = maskSecret(a.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of the key.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
