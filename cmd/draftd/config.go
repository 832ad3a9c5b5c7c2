package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the draftd service configuration. The YAML file carries
// the defaults; PORT and NATS_URL environment variables override it
// for deployment.
type Config struct {
	Server struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Scheduler struct {
		BatchSize int32 `yaml:"batch_size"`
	} `yaml:"scheduler"`

	NATS struct {
		URL           string `yaml:"url"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Outbox struct {
		NotifyChannel    string        `yaml:"notify_channel"`
		FallbackInterval time.Duration `yaml:"fallback_interval"`
		BatchSize        int32         `yaml:"batch_size"`
	} `yaml:"outbox"`

	MigrationsPath string `yaml:"migrations_path"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Scheduler.BatchSize = 25
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.Stream = "DRAFT_EVENTS"
	cfg.NATS.SubjectPrefix = "draft.events"
	cfg.Outbox.NotifyChannel = "draft_outbox_events"
	cfg.Outbox.FallbackInterval = 30 * time.Second
	cfg.Outbox.BatchSize = 100
	cfg.MigrationsPath = "file://migrations"
	return cfg
}

// loadConfig reads the YAML file at path when it exists and applies
// environment overrides on top.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	if v := os.Getenv("SCHEDULER_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Scheduler.BatchSize = int32(n)
		}
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
