package api

import (
	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/recommend"
)

type RecommendationRequest struct {
	CreatorID      string `json:"creator_id"       validate:"required"`
	FanID          string `json:"fan_id"           validate:"required"`
	SystemPromptID string `json:"system_prompt_id" validate:"required"`
	ChatType       string `json:"chat_type"`
}

type RecommendationResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	FanID           string                     `json:"fan_id"`
	CreatorID       string                     `json:"creator_id"`
	ChatType        string                     `json:"chat_type"`
}

type SelectedReplyRequest struct {
	FanID        string           `json:"fan_id"        validate:"required"`
	CreatorID    string           `json:"creator_id"    validate:"required"`
	ReplyContent string           `json:"reply_content" validate:"required"`
	ReplyID      string           `json:"reply_id"`
	ChatType     string           `json:"chat_type"`
	Metadata     database.JSONMap `json:"metadata"`
}

type FanMessageRequest struct {
	FanID     string `json:"fan_id"     validate:"required"`
	CreatorID string `json:"creator_id" validate:"required"`
	Content   string `json:"content"    validate:"required"`
}

type StoredMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

type ChatHistoryParams struct {
	CreatorID string `schema:"creator_id" validate:"required"`
	FanID     string `schema:"fan_id"     validate:"required"`
}

type ChatHistoryResponse struct {
	Messages []database.ChatMessage `json:"messages"`
}

type CreateCreatorRequest struct {
	ID            string           `json:"id"`
	Name          string           `json:"name" validate:"required"`
	Niches        database.TagList `json:"niches"`
	Persona       database.TagList `json:"persona"`
	EmojisEnabled bool             `json:"emojis_enabled"`
	EmojisUsed    database.TagList `json:"emojis_used"`
	NSFW          bool             `json:"nsfw"`
}

type CreateFanRequest struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"           validate:"required"`
	LifetimeSpend float64 `json:"lifetime_spend" validate:"gte=0"`
}

type CreateSystemPromptRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"          validate:"required"`
	SystemPrompt string `json:"system_prompt" validate:"required"`
}

type CreatorResponse struct {
	Success bool              `json:"success,omitempty"`
	Creator *database.Creator `json:"creator"`
	Message string            `json:"message,omitempty"`
}

type FanResponse struct {
	Success bool          `json:"success,omitempty"`
	Fan     *database.Fan `json:"fan"`
	Message string        `json:"message,omitempty"`
}

type SystemPromptResponse struct {
	Success      bool                   `json:"success,omitempty"`
	SystemPrompt *database.SystemPrompt `json:"system_prompt"`
	Message      string                 `json:"message,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
