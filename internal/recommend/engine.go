package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/edgard/middleman/internal/metrics"
)

// Sampling parameters of the single model call.
const (
	Temperature     float32 = 0.8
	MaxOutputTokens int32   = 500
)

// ReplyDirective is the final user message asking for labeled replies.
const ReplyDirective = `Generate exactly 3 different reply options. Each reply should be unique, warm, affectionate, and appropriate. Format your response as follows:

Reply 1: [your first reply here]
Reply 2: [your second reply here]
Reply 3: [your third reply here]

Make sure each reply is distinct and shows different ways to make the fan feel special and valued.`

// Engine produces ranked recommendations.
type Engine struct {
	fetcher    *Fetcher
	model      Model
	strategies []ParseStrategy
	log        *slog.Logger
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source used for reply ids.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStrategies replaces the parse cascade.
func WithStrategies(strategies []ParseStrategy) Option {
	return func(e *Engine) { e.strategies = strategies }
}

// NewEngine creates an Engine over the given fetcher and model.
func NewEngine(fetcher *Fetcher, model Model, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		fetcher:    fetcher,
		model:      model,
		strategies: DefaultStrategies,
		log:        log.With("component", "engine"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend returns exactly three recommendations for req or an error.
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	recs, err := e.recommend(ctx, req)
	metrics.RecommendationsTotal.WithLabelValues(outcome(err)).Inc()
	return recs, err
}

func (e *Engine) recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	chatType := req.ChatType
	if chatType == "" {
		chatType = DefaultChatType
	}

	pc, err := e.fetcher.FetchContext(ctx, req.CreatorID, req.FanID, req.SystemPromptID)
	if err != nil {
		return nil, err
	}

	history := NormalizeHistory(req.ChatHistory)
	rendered := RenderPrompt(pc.Prompt.SystemPrompt, pc.Creator, pc.Fan, history)

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: rendered})
	for _, t := range history {
		messages = append(messages, Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: ReplyDirective})

	e.log.DebugContext(ctx, "Requesting replies from model",
		"creator_id", req.CreatorID, "fan_id", req.FanID, "history_turns", len(history))

	text, err := e.model.Complete(ctx, messages, CompletionOptions{
		Temperature:     Temperature,
		MaxOutputTokens: MaxOutputTokens,
	})
	if err != nil {
		e.log.ErrorContext(ctx, "Model call failed", "creator_id", req.CreatorID, "fan_id", req.FanID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrModelInvocation, err)
	}

	replies, strategy, ok := ParseReplies(text, e.strategies)
	if !ok || len(replies) < ReplyCount {
		e.log.WarnContext(ctx, "Model response could not be split into replies", "response_len", len(text))
		return nil, fmt.Errorf("%w: got %d of %d", ErrGenerationShortfall, len(replies), ReplyCount)
	}
	metrics.ParseStrategyTotal.WithLabelValues(strategy).Inc()
	e.log.DebugContext(ctx, "Parsed model replies", "strategy", strategy)

	return e.buildRecommendations(replies, chatType)
}

func (e *Engine) buildRecommendations(replies []string, chatType string) ([]Recommendation, error) {
	stamp := e.now().UnixNano()
	recs := make([]Recommendation, 0, ReplyCount)
	for i, reply := range replies[:ReplyCount] {
		if reply == "" {
			continue
		}
		rank := i + 1
		recs = append(recs, Recommendation{
			ReplyID:    "rec_" + strconv.Itoa(rank) + "_" + strconv.FormatInt(stamp, 10),
			Content:    reply,
			Confidence: float64(10-rank) / 10,
			ChatType:   chatType,
		})
	}
	if len(recs) < ReplyCount {
		return nil, fmt.Errorf("%w: got %d of %d", ErrGenerationShortfall, len(recs), ReplyCount)
	}
	return recs, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrModelInvocation):
		return "model_error"
	case errors.Is(err, ErrGenerationShortfall):
		return "shortfall"
	default:
		return "error"
	}
}
