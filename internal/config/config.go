package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	// A missing .env file is fine, real environment variables still apply
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/spam-classifier/")
	v.AddConfigPath("$HOME/.spam-classifier")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SPAM_CLASSIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The connection string keeps its conventional unprefixed name
	if err := v.BindEnv("database.url", "SPAM_CLASSIFIER_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind database url: %w", err)
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit file path
func NewFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := NewEmptyViper()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("SPAM_CLASSIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("database.url", "SPAM_CLASSIFIER_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind database url: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// HTTP server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:5000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_message_bytes", 64*1024)

	// Artifact defaults
	v.SetDefault("artifacts.vectorizer_path", "artifacts/vectorizer.json")
	v.SetDefault("artifacts.model_path", "artifacts/model.json")
	v.SetDefault("artifacts.vectorizer_sha256", "")
	v.SetDefault("artifacts.model_sha256", "")
	v.SetDefault("artifacts.s3_region", "us-east-1")

	// History defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("history.limit", 20)

	// SMTP content filter defaults
	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.listen_address", "0.0.0.0:10025")
	v.SetDefault("smtp.block_spam", false)
	v.SetDefault("smtp.record_history", false)
	v.SetDefault("smtp.max_body_size", 16*1024)
	v.SetDefault("smtp.headers.status", "X-Spam-Status")
	v.SetDefault("smtp.headers.label", "X-Spam-Label")
	v.SetDefault("smtp.headers.processing_id", "X-Spam-Processing-ID")
	v.SetDefault("smtp.modify_subject", false)
	v.SetDefault("smtp.subject_prefix", "[**SPAM**] ")
	v.SetDefault("smtp.postfix.enabled", true)
	v.SetDefault("smtp.postfix.address", "localhost")
	v.SetDefault("smtp.postfix.port", 10026)
	v.SetDefault("smtp.whitelisted_domains", []string{})

	// Front end defaults
	v.SetDefault("filter.type", "postfix")
	v.SetDefault("cli.verbose", false)
	v.SetDefault("cli.max_message_bytes", 64*1024)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
