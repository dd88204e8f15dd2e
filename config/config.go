package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting of the order assistant.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Training TrainingConfig `mapstructure:"training"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Order    OrderConfig    `mapstructure:"order"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	BodyLimitMB    int    `mapstructure:"body_limit_mb"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, mysql, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite only
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TrainingConfig points at the menu/rules document injected into the prompt.
type TrainingConfig struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type CacheConfig struct {
	Driver        string `mapstructure:"driver"` // memory, redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type WebhookConfig struct {
	URL      string        `mapstructure:"url"`
	OrderURL string        `mapstructure:"order_url"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OrderConfig struct {
	EstabelecimentoID int    `mapstructure:"estabelecimento_id"`
	Channel           string `mapstructure:"channel"`
}

// envBindings maps config keys to the environment variables the service has
// always been deployed with.
var envBindings = map[string]string{
	"server.port":            "PORT",
	"server.allowed_origins": "ALLOWED_ORIGINS",
	"server.body_limit_mb":   "BODY_LIMIT_MB",

	"log.level":     "LOG_LEVEL",
	"log.format":    "LOG_FORMAT",
	"log.output":    "LOG_OUTPUT",
	"log.file_path": "LOG_FILE_PATH",

	"database.driver":   "DB_DRIVER",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.sslmode":  "DB_SSLMODE",
	"database.path":     "DB_PATH",

	"openai.api_key":  "OPENAI_API_KEY",
	"openai.model":    "OPENAI_MODEL",
	"openai.base_url": "OPENAI_BASE_URL",
	"openai.timeout":  "OPENAI_TIMEOUT",

	"training.url":       "TRAINING_URL",
	"training.timeout":   "TRAINING_TIMEOUT",
	"training.cache_ttl": "TRAINING_CACHE_TTL",

	"cache.driver":         "CACHE_DRIVER",
	"cache.redis_addr":     "REDIS_ADDR",
	"cache.redis_password": "REDIS_PASSWORD",
	"cache.redis_db":       "REDIS_DB",

	"webhook.url":       "WEBHOOK_URL",
	"webhook.order_url": "ORDER_WEBHOOK_URL",
	"webhook.token":     "ORDER_WEBHOOK_TOKEN",
	"webhook.timeout":   "WEBHOOK_TIMEOUT",

	"order.estabelecimento_id": "ESTABELECIMENTO_ID",
	"order.channel":            "ORDER_CHANNEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("server.body_limit_mb", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "orders.db")

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.timeout", 30*time.Second)

	v.SetDefault("training.timeout", 15*time.Second)
	v.SetDefault("training.cache_ttl", time.Hour)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")

	v.SetDefault("webhook.timeout", 10*time.Second)

	v.SetDefault("order.estabelecimento_id", 1)
	v.SetDefault("order.channel", "whatsapp_ia_donvitto")
}

// Load reads .env (if any), an optional config file and the environment.
// Environment variables win over the file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings that would otherwise fail at first use.
// A missing OpenAI key is allowed: each chat turn reports it to the user.
func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required")
	}

	return nil
}

// OrderWebhookURL prefers the dedicated order webhook over the generic one.
func (c *Config) OrderWebhookURL() string {
	if c.Webhook.OrderURL != "" {
		return c.Webhook.OrderURL
	}
	return c.Webhook.URL
}

func (c *Config) BodyLimitBytes() int {
	if c.Server.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.Server.BodyLimitMB * 1024 * 1024
}
