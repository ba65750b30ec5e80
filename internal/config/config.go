// Package config resolves server settings from flags, environment and
// defaults through viper.
package config

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyOllamaURL       = "ollama-url"
	KeyModel           = "model"
	KeyPort            = "port"
	KeyData            = "data"
	KeyGenerateTimeout = "generate-timeout"
	KeyPullTimeout     = "pull-timeout"
	KeyLogLevel        = "log-level"
	KeyWarmupAttempts  = "warmup-attempts"
)

// Config is the resolved server configuration.
type Config struct {
	OllamaURL       string
	Model           string
	Port            int
	DataDir         string
	GenerateTimeout time.Duration
	PullTimeout     time.Duration
	LogLevel        string
	WarmupAttempts  int
}

// envVars maps each key to the environment variable that overrides it.
var envVars = map[string]string{
	KeyOllamaURL:       "OLLAMA_URL",
	KeyModel:           "OLLAMA_MODEL",
	KeyPort:            "PORT",
	KeyData:            "DATA_DIR",
	KeyGenerateTimeout: "GENERATE_TIMEOUT",
	KeyPullTimeout:     "PULL_TIMEOUT",
	KeyLogLevel:        "LOG_LEVEL",
	KeyWarmupAttempts:  "WARMUP_ATTEMPTS",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OllamaURL:       "http://localhost:11434",
		Model:           "llama3.2:3b",
		Port:            5000,
		DataDir:         "./data",
		GenerateTimeout: 2 * time.Minute,
		PullTimeout:     30 * time.Minute,
		LogLevel:        "info",
		WarmupAttempts:  30,
	}
}

// RegisterFlags adds the server flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(KeyOllamaURL, d.OllamaURL, "base URL of the Ollama server")
	fs.String(KeyModel, d.Model, "model used to generate titles and summaries")
	fs.Int(KeyPort, d.Port, "port of server")
	fs.String(KeyData, d.DataDir, "directory holding the notes.json snapshot")
	fs.Duration(KeyGenerateTimeout, d.GenerateTimeout, "timeout for a single generation request")
	fs.Duration(KeyPullTimeout, d.PullTimeout, "timeout for downloading the model")
	fs.String(KeyLogLevel, d.LogLevel, `log level, one of "debug", "info", "warn" or "error"`)
	fs.Int(KeyWarmupAttempts, d.WarmupAttempts, "health checks at startup before giving up on model warmup")
}

// Bind wires defaults, flags and environment variables into v. Flags set on
// the command line win over the environment, which wins over defaults.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	d := Default()
	v.SetDefault(KeyOllamaURL, d.OllamaURL)
	v.SetDefault(KeyModel, d.Model)
	v.SetDefault(KeyPort, d.Port)
	v.SetDefault(KeyData, d.DataDir)
	v.SetDefault(KeyGenerateTimeout, d.GenerateTimeout)
	v.SetDefault(KeyPullTimeout, d.PullTimeout)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyWarmupAttempts, d.WarmupAttempts)

	for key, env := range envVars {
		if fs != nil {
			if f := fs.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return errors.Wrapf(err, "bind flag %s", key)
				}
			}
		}
		if err := v.BindEnv(key, env); err != nil {
			return errors.Wrapf(err, "bind env %s", env)
		}
	}
	return nil
}

// FromViper reads the resolved values out of v.
func FromViper(v *viper.Viper) Config {
	return Config{
		OllamaURL:       v.GetString(KeyOllamaURL),
		Model:           v.GetString(KeyModel),
		Port:            v.GetInt(KeyPort),
		DataDir:         v.GetString(KeyData),
		GenerateTimeout: v.GetDuration(KeyGenerateTimeout),
		PullTimeout:     v.GetDuration(KeyPullTimeout),
		LogLevel:        v.GetString(KeyLogLevel),
		WarmupAttempts:  v.GetInt(KeyWarmupAttempts),
	}
}

// Validate checks that the configuration can start a server.
func (c Config) Validate() error {
	u, err := url.Parse(c.OllamaURL)
	if err != nil {
		return errors.Wrapf(err, "invalid %s %q", KeyOllamaURL, c.OllamaURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("invalid %s %q: expected http(s)://host[:port]", KeyOllamaURL, c.OllamaURL)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if c.DataDir == "" {
		return errors.New("data directory must not be empty")
	}
	if c.GenerateTimeout <= 0 || c.PullTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.WarmupAttempts < 0 {
		return errors.Errorf("%s must not be negative", KeyWarmupAttempts)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, errors.Wrapf(err, "invalid %s", KeyLogLevel)
	}
	return lvl, nil
}
