// Package config loads, defaults and validates the middleman configuration.
// Values come from built-in defaults, an optional YAML file and MIDDLEMAN_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"time"
)

// ErrValidation is wrapped by every error returned for an invalid configuration.
var ErrValidation = errors.New("config validation error")

// Config is the root configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig configures the SQLite table store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
	// HistoryRetention is how long chat messages are kept. Zero keeps them forever.
	HistoryRetention time.Duration `mapstructure:"history_retention" validate:"min=0"`
}

// GeminiConfig configures the model collaborator.
type GeminiConfig struct {
	APIKey    string        `mapstructure:"api_key"    validate:"required"`
	ModelName string        `mapstructure:"model_name" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout"    validate:"min=1s,max=10m"`
}

// HTTPConfig configures the REST API.
type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"            validate:"required,hostname_port"`
	APIKey         string        `mapstructure:"api_key"`
	RateLimit      int           `mapstructure:"rate_limit"      validate:"min=0"`
	RateWindow     time.Duration `mapstructure:"rate_window"     validate:"min=1s"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=10m"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
}

// TelegramConfig configures the optional Telegram front-end. An empty token
// disables it.
type TelegramConfig struct {
	Token        string        `mapstructure:"token"`
	ChatterIDs   []int64       `mapstructure:"chatter_ids"   validate:"required_with=Token,dive,gt=0"`
	SelectionTTL time.Duration `mapstructure:"selection_ttl" validate:"min=1m"`
}

// Enabled reports whether the Telegram front-end should run.
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

// IsChatter reports whether userID may request and pick suggestions.
func (t TelegramConfig) IsChatter(userID int64) bool {
	for _, id := range t.ChatterIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SchedulerConfig lists the scheduled tasks keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is one scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-facing Telegram texts.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"           validate:"required"`
	Help             string `mapstructure:"help"              validate:"required"`
	NotAuthorized    string `mapstructure:"not_authorized"    validate:"required"`
	GeneralError     string `mapstructure:"general_error"     validate:"required"`
	SuggestUsage     string `mapstructure:"suggest_usage"     validate:"required"`
	SuggestHeader    string `mapstructure:"suggest_header"    validate:"required"`
	FanUsage         string `mapstructure:"fan_usage"         validate:"required"`
	FanStored        string `mapstructure:"fan_stored"        validate:"required"`
	SelectionStored  string `mapstructure:"selection_stored"  validate:"required"`
	SelectionExpired string `mapstructure:"selection_expired" validate:"required"`
}
