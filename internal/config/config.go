// Package config loads flagz settings from a YAML file, a .env file,
// FLAGZ_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env         string        `mapstructure:"env" validate:"oneof=local development production"`
	Lang        string        `mapstructure:"lang" validate:"required"`
	Roster      string        `mapstructure:"roster"`       // optional roster JSON overriding the embedded one
	RosterRetry time.Duration `mapstructure:"roster_retry" validate:"gt=0"`
	Log         LogConfig     `mapstructure:"log"`
	Store       StoreConfig   `mapstructure:"store"`
	Server      ServerConfig  `mapstructure:"server"`
	LLM         LLMConfig     `mapstructure:"llm"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// StoreConfig selects the progress store.
type StoreConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=sqlite postgres redis memory"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// ServerConfig configures `flagz serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// LLMConfig configures optional memory-hook generation.
type LLMConfig struct {
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=anthropic openai gemini openrouter mock"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Flag names bound on top of file and environment values.
var flagKeys = map[string]string{
	"lang":      "lang",
	"roster":    "roster",
	"db":        "store.dsn",
	"store":     "store.driver",
	"log-level": "log.level",
	"log-file":  "log.file",
	"addr":      "server.addr",
}

// Load reads configuration. configFile may be empty to use the default
// search path; flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configDir())
		v.AddConfigPath("./config")
	}

	v.SetDefault("env", "local")
	v.SetDefault("lang", "en")
	v.SetDefault("roster", "")
	v.SetDefault("roster_retry", "500ms")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.redis_prefix", "flagz:")
	v.SetDefault("server.addr", "127.0.0.1:8420")
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "30s")

	v.SetEnvPrefix("FLAGZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// FLAGZ_DB predates the store section.
	_ = v.BindEnv("store.dsn", "FLAGZ_STORE_DSN", "FLAGZ_DB")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Production reports whether env is production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "flagz")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "flagz")
}
