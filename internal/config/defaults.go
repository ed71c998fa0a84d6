package config

import "time"

const (
	defaultGeminiTimeout  = 60 * time.Second
	defaultRequestTimeout = 90 * time.Second
	defaultSelectionTTL   = 30 * time.Minute
)

var defaults = map[string]any{
	"logger.level": "info",
	"logger.json":  false,

	"database.path":              "middleman.db",
	"database.history_retention": time.Duration(0),

	"gemini.api_key":    "",
	"gemini.model_name": "gemini-2.0-flash",
	"gemini.timeout":    defaultGeminiTimeout,

	"http.addr":            "0.0.0.0:8080",
	"http.api_key":         "",
	"http.rate_limit":      60,
	"http.rate_window":     time.Minute,
	"http.request_timeout": defaultRequestTimeout,
	"http.cors_origins":    []string{"*"},

	"telegram.token":         "",
	"telegram.chatter_ids":   []int64{},
	"telegram.selection_ttl": defaultSelectionTTL,

	"scheduler.tasks": map[string]any{
		"sql_maintenance":   map[string]any{"enabled": true, "schedule": "0 0 4 * * *"},
		"selection_cleanup": map[string]any{"enabled": true, "schedule": "0 */5 * * * *"},
		"history_retention": map[string]any{"enabled": false, "schedule": "0 30 4 * * *"},
	},

	"messages.welcome":           "👋 I draft replies for your fan chats. Use /suggest to get three options.",
	"messages.help":              "/suggest <creator_id> <fan_id> <system_prompt_id> [chat_type] - draft 3 replies\n/fan <creator_id> <fan_id> <text> - record a fan message",
	"messages.not_authorized":    "🚫 You are not allowed to use this bot.",
	"messages.general_error":     "❌ Something went wrong. Please try again later.",
	"messages.suggest_usage":     "Usage: /suggest <creator_id> <fan_id> <system_prompt_id> [chat_type]",
	"messages.suggest_header":    "Suggested replies:",
	"messages.fan_usage":         "Usage: /fan <creator_id> <fan_id> <text>",
	"messages.fan_stored":        "Fan message recorded.",
	"messages.selection_stored":  "✅ Reply %d stored.",
	"messages.selection_expired": "This suggestion has expired. Run /suggest again.",
}
