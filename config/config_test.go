package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("WEBHOOK_URL", "http://hooks.local/generic")
	t.Setenv("ESTABELECIMENTO_ID", "42")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Training.Timeout)
	assert.Equal(t, time.Hour, cfg.Training.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 42, cfg.Order.EstabelecimentoID)
	assert.Equal(t, "whatsapp_ia_donvitto", cfg.Order.Channel)
	assert.Equal(t, "http://hooks.local/generic", cfg.OrderWebhookURL())
}

func TestOrderWebhookURL_PrefersOrderURL(t *testing.T) {
	cfg := &Config{Webhook: WebhookConfig{URL: "http://a", OrderURL: "http://b"}}
	assert.Equal(t, "http://b", cfg.OrderWebhookURL())

	cfg.Webhook.OrderURL = ""
	assert.Equal(t, "http://a", cfg.OrderWebhookURL())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: "8080"},
			Log:      LogConfig{Level: "info", Format: "json"},
			Database: DatabaseConfig{Driver: "postgres"},
			Cache:    CacheConfig{Driver: "memory"},
			OpenAI:   OpenAIConfig{Model: "gpt-4o-mini"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api key is fine", mutate: func(c *Config) { c.OpenAI.APIKey = "" }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = "http" }, wantErr: "invalid server port"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "invalid log format"},
		{name: "bad db driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "invalid database driver"},
		{name: "bad cache driver", mutate: func(c *Config) { c.Cache.Driver = "memcached" }, wantErr: "invalid cache driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBodyLimitBytes(t *testing.T) {
	assert.Equal(t, 4*1024*1024, (&Config{}).BodyLimitBytes())
	assert.Equal(t, 2*1024*1024, (&Config{Server: ServerConfig{BodyLimitMB: 2}}).BodyLimitBytes())
}
