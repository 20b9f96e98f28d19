package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type NexusEnv struct {
	Instance     string `envconfig:"NEXUS_INSTANCE" required:"true"`
	ClientID     string `envconfig:"NEXUS_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"NEXUS_CLIENT_SECRET" required:"true"`
}

type NexusDatabaseEnv struct {
	DSN string `envconfig:"NEXUS_DB_DSN" required:"true"`
}

type WorkqueueEnv struct {
	URL    string `envconfig:"WORKQUEUE_URL" required:"true"`
	APIKey string `envconfig:"WORKQUEUE_API_KEY" required:"true"`
	Name   string `envconfig:"WORKQUEUE_NAME" default:"passivering-af-ungesager"`
}

type ReportingEnv struct {
	URL    string `envconfig:"REPORTING_URL" required:"true"`
	APIKey string `envconfig:"REPORTING_API_KEY"`
}

type TrackingEnv struct {
	DSN string `envconfig:"TRACKING_DSN" required:"true"`
}

type RulesEnv struct {
	// Optional YAML file overriding the built-in passivation rules.
	File string `envconfig:"RULES_FILE"`
}

type Env struct {
	BaseEnv
	NexusEnv
	NexusDatabaseEnv
	WorkqueueEnv
	ReportingEnv
	TrackingEnv
	RulesEnv
}

const namespace = "PASSIVERING"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
