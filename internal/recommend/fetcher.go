package recommend

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/middleman/internal/database"
)

// RecentHistoryLimit is how many stored messages are used as context.
const RecentHistoryLimit = 10

// PromptContext is the data a recommendation is rendered from.
type PromptContext struct {
	Creator *database.Creator
	Fan     *database.Fan
	Prompt  *database.SystemPrompt
}

// Fetcher loads creator, fan, prompt and history records.
type Fetcher struct {
	store Store
	log   *slog.Logger
}

// NewFetcher creates a Fetcher reading from store.
func NewFetcher(store Store, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{store: store, log: log.With("component", "fetcher")}
}

// FetchContext loads the creator, fan and system prompt, in that order,
// stopping at the first missing record.
func (f *Fetcher) FetchContext(ctx context.Context, creatorID, fanID, promptID string) (*PromptContext, error) {
	switch {
	case creatorID == "":
		return nil, fmt.Errorf("%w: creator_id is required", ErrInvalidRequest)
	case fanID == "":
		return nil, fmt.Errorf("%w: fan_id is required", ErrInvalidRequest)
	case promptID == "":
		return nil, fmt.Errorf("%w: system_prompt_id is required", ErrInvalidRequest)
	}

	creator, err := f.store.GetCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch creator: %w", err)
	}
	if creator == nil {
		return nil, &NotFoundError{Entity: EntityCreator, ID: creatorID}
	}

	fan, err := f.store.GetFan(ctx, fanID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fan: %w", err)
	}
	if fan == nil {
		return nil, &NotFoundError{Entity: EntityFan, ID: fanID}
	}

	prompt, err := f.store.GetSystemPrompt(ctx, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch system prompt: %w", err)
	}
	if prompt == nil {
		return nil, &NotFoundError{Entity: EntitySystemPrompt, ID: promptID}
	}

	return &PromptContext{Creator: creator, Fan: fan, Prompt: prompt}, nil
}

// RecentHistory returns the most recent messages for the pair, newest first.
func (f *Fetcher) RecentHistory(ctx context.Context, creatorID, fanID string) ([]HistoryEntry, error) {
	messages, err := f.store.GetRecentChatMessages(ctx, creatorID, fanID, RecentHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, HistoryEntry{
			Sender:    m.Sender,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	f.log.DebugContext(ctx, "Loaded recent history", "creator_id", creatorID, "fan_id", fanID, "count", len(entries))
	return entries, nil
}
