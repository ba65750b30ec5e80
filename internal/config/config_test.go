package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) Config {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	v := viper.New()
	require.NoError(t, Bind(v, fs))
	return FromViper(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://ollama:11434")
	t.Setenv("OLLAMA_MODEL", "qwen2.5:1.5b")
	t.Setenv("PORT", "8080")
	t.Setenv("DATA_DIR", "/var/lib/notes")
	t.Setenv("GENERATE_TIMEOUT", "45s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WARMUP_ATTEMPTS", "0")

	cfg := load(t)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaURL)
	assert.Equal(t, "qwen2.5:1.5b", cfg.Model)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/var/lib/notes", cfg.DataDir)
	assert.Equal(t, 45*time.Second, cfg.GenerateTimeout)
	assert.Equal(t, 30*time.Minute, cfg.PullTimeout)
	assert.Equal(t, 0, cfg.WarmupAttempts)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("OLLAMA_MODEL", "from-env")

	cfg := load(t, "--port", "9090", "--pull-timeout", "1h")
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, time.Hour, cfg.PullTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad scheme", func(c *Config) { c.OllamaURL = "ftp://host" }, "invalid ollama-url"},
		{"no host", func(c *Config) { c.OllamaURL = "localhost:11434" }, "invalid ollama-url"},
		{"empty model", func(c *Config) { c.Model = " " }, "model must not be empty"},
		{"port zero", func(c *Config) { c.Port = 0 }, "port 0 out of range"},
		{"port too big", func(c *Config) { c.Port = 70000 }, "out of range"},
		{"no data dir", func(c *Config) { c.DataDir = "" }, "data directory"},
		{"zero timeout", func(c *Config) { c.GenerateTimeout = 0 }, "timeouts must be positive"},
		{"negative warmup", func(c *Config) { c.WarmupAttempts = -1 }, "warmup-attempts"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log-level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
