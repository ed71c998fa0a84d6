// Package recommend drafts candidate replies for a creator chatting with a fan.
//
// A call fetches the creator, fan and system prompt, renders the prompt
// template over the recent conversation, asks the model once for three
// labeled replies and parses whatever comes back into exactly three ranked
// recommendations.
package recommend

import (
	"context"
	"time"

	"github.com/edgard/middleman/internal/database"
)

// Canonical conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatType is used when a request does not name one.
const DefaultChatType = "text"

// HistoryEntry is a stored or client-supplied chat message. The role may be
// given as Role or Sender and the text as Content or Message; Role and
// Content take priority.
type HistoryEntry struct {
	Role      string    `json:"role,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Content   string    `json:"content,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Turn is a normalized (role, content) pair.
type Turn struct {
	Role    string
	Content string
}

// Message is one entry of the list sent to the model.
type Message struct {
	Role    string
	Content string
}

// CompletionOptions are the sampling parameters of a model call.
type CompletionOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Model completes a conversation. Implementations must be safe for
// concurrent use and must return an error only for transport or service
// failures; an empty answer is "" with a nil error.
type Model interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

// Store is the read side of the persistence layer needed by the pipeline.
type Store interface {
	GetCreator(ctx context.Context, id string) (*database.Creator, error)
	GetFan(ctx context.Context, id string) (*database.Fan, error)
	GetSystemPrompt(ctx context.Context, id string) (*database.SystemPrompt, error)
	GetRecentChatMessages(ctx context.Context, creatorID, fanID string, limit int) ([]database.ChatMessage, error)
}

// Request asks for recommendations for one creator/fan pair.
type Request struct {
	CreatorID      string
	FanID          string
	SystemPromptID string
	ChatHistory    []HistoryEntry
	ChatType       string
}

// Recommendation is one ranked reply candidate.
type Recommendation struct {
	ReplyID    string  `json:"reply_id"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	ChatType   string  `json:"chat_type"`
}
