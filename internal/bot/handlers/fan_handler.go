package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/middleman/internal/database"
)

// NewFanHandler returns a handler for the /fan command.
func NewFanHandler(deps HandlerDeps) bot.HandlerFunc {
	return fanHandler{deps}.Handle
}

type fanHandler struct {
	deps HandlerDeps
}

func (h fanHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "fan")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Fan handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text, 3)
	if len(args) != 3 {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.FanUsage)
		return
	}

	msg := &database.ChatMessage{
		CreatorID: args[0],
		FanID:     args[1],
		Sender:    database.SenderFan,
		Content:   args[2],
		Metadata:  database.JSONMap{"source": "telegram"},
	}
	if err := h.deps.Store.SaveChatMessage(ctx, msg); err != nil {
		log.ErrorContext(ctx, "Failed to store fan message", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Stored fan message", "message_id", msg.ID, "creator_id", msg.CreatorID, "fan_id", msg.FanID)
	sendText(ctx, b, log, chatID, h.deps.Config.Messages.FanStored)
}
