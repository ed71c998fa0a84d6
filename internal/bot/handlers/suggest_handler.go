package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/middleman/internal/recommend"
)

// NewSuggestHandler returns a handler for the /suggest command.
func NewSuggestHandler(deps HandlerDeps) bot.HandlerFunc {
	return suggestHandler{deps}.Handle
}

type suggestHandler struct {
	deps HandlerDeps
}

func (h suggestHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "suggest")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Suggest handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text, 5)
	if len(args) < 3 || len(args) > 4 {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.SuggestUsage)
		return
	}
	req := recommend.Request{
		CreatorID:      args[0],
		FanID:          args[1],
		SystemPromptID: args[2],
		ChatType:       recommend.DefaultChatType,
	}
	if len(args) == 4 {
		req.ChatType = args[3]
	}

	log.InfoContext(ctx, "Handling /suggest command",
		"chat_id", chatID,
		"user_id", update.Message.From.ID,
		"creator_id", req.CreatorID,
		"fan_id", req.FanID)

	_, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})
	if err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err)
	}

	history, err := h.deps.Fetcher.RecentHistory(ctx, req.CreatorID, req.FanID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load chat history", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	req.ChatHistory = history

	recs, err := h.deps.Engine.Recommend(ctx, req)
	if err != nil {
		var nf *recommend.NotFoundError
		if errors.As(err, &nf) {
			log.InfoContext(ctx, "Suggestion target not found", "entity", nf.Entity, "id", nf.ID)
			sendText(ctx, b, log, chatID, nf.Error())
			return
		}
		log.ErrorContext(ctx, "Failed to generate suggestions", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	selections := make([]Selection, 0, len(recs))
	for i, rec := range recs {
		selections = append(selections, Selection{
			ReplyID:   rec.ReplyID,
			Group:     recs[0].ReplyID,
			Rank:      i + 1,
			CreatorID: req.CreatorID,
			FanID:     req.FanID,
			Content:   rec.Content,
			ChatType:  rec.ChatType,
		})
	}
	h.deps.Selections.Put(selections...)

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        suggestionText(h.deps.Config.Messages.SuggestHeader, recs),
		ReplyMarkup: suggestionKeyboard(recs),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send suggestions", "error", err, "chat_id", chatID)
		h.deps.Selections.RemoveGroup(recs[0].ReplyID)
		return
	}
	log.DebugContext(ctx, "Sent suggestions", "chat_id", chatID, "count", len(recs))
}

func suggestionText(header string, recs []recommend.Recommendation) string {
	var sb strings.Builder
	sb.WriteString(header)
	for i, rec := range recs {
		fmt.Fprintf(&sb, "\n\n%d. %s", i+1, rec.Content)
	}
	return sb.String()
}

func suggestionKeyboard(recs []recommend.Recommendation) *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, len(recs))
	for i, rec := range recs {
		row = append(row, models.InlineKeyboardButton{
			Text:         "Use " + strconv.Itoa(i+1),
			CallbackData: PickPrefix + rec.ReplyID,
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}
