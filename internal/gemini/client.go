// Package gemini adapts Google's Gemini API to the recommend.Model interface.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/middleman/internal/config"
	"github.com/edgard/middleman/internal/metrics"
	"github.com/edgard/middleman/internal/recommend"
)

// contentGenerator is the subset of genai.Models used by the client.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client calls a Gemini model once per Complete. It does not retry.
type Client struct {
	models    contentGenerator
	log       *slog.Logger
	modelName string
	timeout   time.Duration
	safety    []*genai.SafetySetting
}

var _ recommend.Model = (*Client)(nil)

// NewClient creates a Gemini client from cfg.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.ModelName)
	return newClient(gi.Models, cfg, logger), nil
}

func newClient(models contentGenerator, cfg config.GeminiConfig, log *slog.Logger) *Client {
	return &Client{
		models:    models,
		log:       log,
		modelName: cfg.ModelName,
		timeout:   cfg.Timeout,
		// Content policy is expressed in the creator's prompt, not the API filters.
		safety: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
}

// Complete sends messages to the model and returns the generated text.
// An empty but successful response yields "" and a nil error.
func (c *Client) Complete(ctx context.Context, messages []recommend.Message, opts recommend.CompletionOptions) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents, system := c.buildContents(ctx, messages)

	temperature := opts.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   opts.MaxOutputTokens,
		SafetySettings:    c.safety,
		SystemInstruction: system,
	}

	c.log.DebugContext(ctx, "Calling Gemini", "model", c.modelName, "contents", len(contents))

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.modelName, contents, cfg)
	metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelCallErrors.Inc()
		c.log.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		metrics.ModelCallErrors.Inc()
		c.log.ErrorContext(ctx, "Gemini response rejected", "error", err)
		return "", err
	}
	if text == "" {
		c.log.WarnContext(ctx, "Gemini returned empty text")
	}
	return text, nil
}

// buildContents maps role-tagged messages onto genai contents. System
// messages become the system instruction.
func (c *Client) buildContents(ctx context.Context, messages []recommend.Message) ([]*genai.Content, *genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case recommend.RoleSystem:
			system = append(system, m.Content)
		case recommend.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case recommend.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		default:
			c.log.WarnContext(ctx, "Unknown message role, sending as user", "role", m.Role)
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(system) == 0 {
		return contents, nil
	}
	return contents, &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
}

// promptBlocked reports whether reason names an actual block. Feedback that
// only carries safety ratings leaves the reason empty.
func promptBlocked(reason genai.BlockedReason) bool {
	return reason != "" && reason != genai.BlockedReasonUnspecified
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	if resp.PromptFeedback != nil && promptBlocked(resp.PromptFeedback.BlockReason) {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("gemini request blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) > 0 {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReasonSPII:
			return "", fmt.Errorf("gemini response blocked, finish reason: %s", resp.Candidates[0].FinishReason)
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	return resp.Text(), nil
}
