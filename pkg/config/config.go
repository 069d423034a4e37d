package config

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER" validate:"required,oneof=postgres sqlite"`
	DatabaseURL    string `mapstructure:"DATABASE_URL" validate:"required"`

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"required,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AsynqConcurrency int `mapstructure:"ASYNQ_CONCURRENCY" validate:"gte=1,lte=1000"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`

	JWTSecret string `mapstructure:"JWT_SECRET" validate:"required,min=16"`

	// AI completion service. An empty URL disables the model and every
	// prompt goes through the deterministic fallback.
	AIAPIURL   string        `mapstructure:"AI_API_URL" validate:"omitempty,url"`
	AIAPIKey   string        `mapstructure:"AI_API_KEY"`
	AIModel    string        `mapstructure:"AI_MODEL" validate:"required"`
	AIProvider string        `mapstructure:"AI_PROVIDER" validate:"required"`
	AITimeout  time.Duration `mapstructure:"AI_TIMEOUT" validate:"required"`

	PublishWebhookURL   string        `mapstructure:"PUBLISH_WEBHOOK_URL" validate:"omitempty,url"`
	PublishWebhookToken string        `mapstructure:"PUBLISH_WEBHOOK_TOKEN"`
	PublishTimeout      time.Duration `mapstructure:"PUBLISH_TIMEOUT" validate:"required"`

	AssistantRunStaleAfter time.Duration `mapstructure:"ASSISTANT_RUN_STALE_AFTER" validate:"required"`
	PageLockBackend        string        `mapstructure:"PAGE_LOCK_BACKEND" validate:"required,oneof=memory redis"`

	MCPActorID string `mapstructure:"MCP_ACTOR_ID"`
}

var (
	mu       sync.RWMutex
	cfg      *Config
	v        *viper.Viper
	validate = validator.New(validator.WithRequiredStructEnabled())
)

var keys = []string{
	"APP_ENV",
	"HTTP_ADDR",
	"SHUTDOWN_TIMEOUT",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"DATABASE_DRIVER",
	"DATABASE_URL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"ASYNQ_CONCURRENCY",
	"GOMAXPROCS",
	"JWT_SECRET",
	"AI_API_URL",
	"AI_API_KEY",
	"AI_MODEL",
	"AI_PROVIDER",
	"AI_TIMEOUT",
	"PUBLISH_WEBHOOK_URL",
	"PUBLISH_WEBHOOK_TOKEN",
	"PUBLISH_TIMEOUT",
	"ASSISTANT_RUN_STALE_AFTER",
	"PAGE_LOCK_BACKEND",
	"MCP_ACTOR_ID",
}

var durationKeys = []string{
	"SHUTDOWN_TIMEOUT",
	"AI_TIMEOUT",
	"PUBLISH_TIMEOUT",
	"ASSISTANT_RUN_STALE_AFTER",
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	nv := viper.New()
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")
	nv.AddConfigPath(".")
	nv.AutomaticEnv()

	nv.SetDefault("APP_ENV", "development")
	nv.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	nv.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	nv.SetDefault("LOG_LEVEL", "info")
	nv.SetDefault("LOG_FORMAT", "json")
	nv.SetDefault("DATABASE_DRIVER", "postgres")
	nv.SetDefault("ASYNQ_CONCURRENCY", 10)
	nv.SetDefault("GOMAXPROCS", 0)
	nv.SetDefault("AI_MODEL", "gpt-4o-mini")
	nv.SetDefault("AI_PROVIDER", "openai")
	nv.SetDefault("AI_TIMEOUT", "45s")
	nv.SetDefault("PUBLISH_TIMEOUT", "30s")
	nv.SetDefault("ASSISTANT_RUN_STALE_AFTER", "10m")
	nv.SetDefault("PAGE_LOCK_BACKEND", "memory")

	_ = nv.ReadInConfig()

	for _, key := range keys {
		_ = nv.BindEnv(key)
	}

	c, err := decode(nv)
	if err != nil {
		return nil, err
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	mu.Lock()
	cfg, v = c, nv
	mu.Unlock()
	return c, nil
}

func decode(nv *viper.Viper) (*Config, error) {
	var c Config
	if err := nv.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	// Durations may arrive as plain strings from the environment.
	for _, key := range durationKeys {
		s := nv.GetString(key)
		if s == "" {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		switch key {
		case "SHUTDOWN_TIMEOUT":
			c.ShutdownTimeout = d
		case "AI_TIMEOUT":
			c.AITimeout = d
		case "PUBLISH_TIMEOUT":
			c.PublishTimeout = d
		case "ASSISTANT_RUN_STALE_AFTER":
			c.AssistantRunStaleAfter = d
		}
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// Watch re-reads config.yaml whenever it changes and hands the new, validated
// configuration to onChange. Invalid edits are reported through onError and
// the previous configuration stays active.
func Watch(onChange func(*Config), onError func(error)) {
	mu.RLock()
	nv := v
	mu.RUnlock()
	if nv == nil {
		return
	}
	nv.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		c, err := decode(nv)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		mu.Lock()
		cfg = c
		mu.Unlock()
		onChange(c)
	})
	nv.WatchConfig()
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}
