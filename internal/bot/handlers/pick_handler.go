package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/middleman/internal/database"
)

// NewPickHandler returns a handler for suggestion button presses.
func NewPickHandler(deps HandlerDeps) bot.HandlerFunc {
	return pickHandler{deps}.Handle
}

type pickHandler struct {
	deps HandlerDeps
}

func (h pickHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "pick")

	query := update.CallbackQuery
	if query == nil {
		log.WarnContext(ctx, "Pick handler received update without callback query", "update_id", update.ID)
		return
	}

	replyID := strings.TrimPrefix(query.Data, PickPrefix)
	sel, group, ok := h.deps.Selections.Take(replyID)
	if !ok {
		log.InfoContext(ctx, "Selection expired or unknown", "reply_id", replyID, "user_id", query.From.ID)
		h.answer(ctx, b, log, query.ID, h.deps.Config.Messages.SelectionExpired)
		h.clearKeyboard(ctx, b, log, query.Message)
		return
	}

	msg := &database.ChatMessage{
		FanID:     sel.FanID,
		CreatorID: sel.CreatorID,
		Sender:    database.SenderCreator,
		Content:   sel.Content,
		Metadata: database.JSONMap{
			"reply_id":  sel.ReplyID,
			"chat_type": sel.ChatType,
			"source":    "telegram",
		},
	}
	if err := h.deps.Store.SaveChatMessage(ctx, msg); err != nil {
		log.ErrorContext(ctx, "Failed to store picked reply", "error", err, "reply_id", replyID)
		h.deps.Selections.Put(group...)
		h.answer(ctx, b, log, query.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Stored picked reply",
		"reply_id", replyID,
		"message_id", msg.ID,
		"creator_id", sel.CreatorID,
		"fan_id", sel.FanID)
	h.answer(ctx, b, log, query.ID, fmt.Sprintf(h.deps.Config.Messages.SelectionStored, sel.Rank))
	h.clearKeyboard(ctx, b, log, query.Message)
}

func (h pickHandler) answer(ctx context.Context, b *bot.Bot, log *slog.Logger, queryID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to answer callback query", "error", err)
	}
}

func (h pickHandler) clearKeyboard(ctx context.Context, b *bot.Bot, log *slog.Logger, origin models.MaybeInaccessibleMessage) {
	if origin.Message == nil {
		return
	}
	_, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      origin.Message.Chat.ID,
		MessageID:   origin.Message.ID,
		ReplyMarkup: models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to remove suggestion keyboard", "error", err, "chat_id", origin.Message.Chat.ID)
	}
}
