package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// Duration accepts human readable values like "5m" or "2h30m" in YAML.
// Bare integers are taken as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type QueueConfig struct {
	Driver            string   `yaml:"driver"` // postgres | redis
	BatchSize         int      `yaml:"batch_size"`
	VisibilityTimeout Duration `yaml:"visibility_timeout"`
	MaxAttempts       int      `yaml:"max_attempts"`
}

type SchedulerConfig struct {
	Period           string   `yaml:"period"` // hourly | daily | monthly
	EnqueueInterval  Duration `yaml:"enqueue_interval"`
	DispatchInterval Duration `yaml:"dispatch_interval"`
	Workers          int      `yaml:"workers"`
}

type RunnerConfig struct {
	Mode         string   `yaml:"mode"` // completion | webhook
	WebhookURL   string   `yaml:"webhook_url"`
	WebhookToken string   `yaml:"webhook_token"`
	Timeout      Duration `yaml:"timeout"`
}

type AlertConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

type AdminConfig struct {
	Port       int      `yaml:"port"`
	APIKey     string   `yaml:"api_key"`
	JWTSecret  string   `yaml:"jwt_secret"`
	SessionTTL Duration `yaml:"session_ttl"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Queue     QueueConfig     `yaml:"queue"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Runner    RunnerConfig    `yaml:"runner"`
	Alert     AlertConfig     `yaml:"alert"`
	Admin     AdminConfig     `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config. Missing required keys fail
// fast here, before anything is enqueued or dispatched.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Queue.Driver == "" {
		cfg.Queue.Driver = "postgres"
	}
	if cfg.Queue.BatchSize <= 0 {
		cfg.Queue.BatchSize = 10
	}
	if cfg.Queue.VisibilityTimeout <= 0 {
		cfg.Queue.VisibilityTimeout = Duration(5 * time.Minute)
	}
	if cfg.Queue.MaxAttempts <= 0 {
		cfg.Queue.MaxAttempts = 3
	}
	if cfg.Scheduler.Period == "" {
		cfg.Scheduler.Period = "daily"
	}
	if cfg.Scheduler.EnqueueInterval <= 0 {
		cfg.Scheduler.EnqueueInterval = Duration(time.Hour)
	}
	if cfg.Scheduler.DispatchInterval <= 0 {
		cfg.Scheduler.DispatchInterval = Duration(time.Minute)
	}
	if cfg.Scheduler.Workers <= 0 {
		cfg.Scheduler.Workers = 8
	}
	if cfg.Runner.Mode == "" {
		cfg.Runner.Mode = "completion"
	}
	if cfg.Runner.Timeout <= 0 {
		cfg.Runner.Timeout = Duration(2 * time.Minute)
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = Duration(30 * time.Minute)
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Queue.Driver != "postgres" && cfg.Queue.Driver != "redis" {
		return nil, fmt.Errorf("queue.driver must be postgres or redis, got %q", cfg.Queue.Driver)
	}
	if cfg.Queue.Driver == "redis" && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required when queue.driver is redis")
	}
	if cfg.Runner.Mode == "webhook" && cfg.Runner.WebhookURL == "" {
		return nil, errors.New("runner.webhook_url is required when runner.mode is webhook")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
