package handlers

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
)

func sendText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

func nextField(s string) (field, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// commandArgs splits the text after the command word into at most n fields.
// The last field keeps its inner whitespace.
func commandArgs(text string, n int) []string {
	_, rest := nextField(text)

	var args []string
	for len(args) < n-1 {
		field, tail := nextField(rest)
		if field == "" {
			return args
		}
		args = append(args, field)
		rest = tail
	}
	if last := strings.TrimSpace(rest); last != "" {
		args = append(args, last)
	}
	return args
}
