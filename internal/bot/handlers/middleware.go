// Package handlers contains the Telegram command and callback handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ChatterOnly rejects updates from users that are not configured chatters.
func ChatterOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			log := deps.Logger.With("middleware", "ChatterOnly")

			switch {
			case update.Message != nil && update.Message.From != nil:
				userID := update.Message.From.ID
				if deps.Config.Telegram.IsChatter(userID) {
					next(ctx, bot, update)
					return
				}
				chatID := update.Message.Chat.ID
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
				_, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: chatID,
					Text:   deps.Config.Messages.NotAuthorized,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
				}

			case update.CallbackQuery != nil:
				userID := update.CallbackQuery.From.ID
				if deps.Config.Telegram.IsChatter(userID) {
					next(ctx, bot, update)
					return
				}
				log.WarnContext(ctx, "Unauthorized callback attempt", "user_id", userID)
				_, err := bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
					CallbackQueryID: update.CallbackQuery.ID,
					Text:            deps.Config.Messages.NotAuthorized,
					ShowAlert:       true,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to answer unauthorized callback", "error", err, "user_id", userID)
				}

			default:
				log.DebugContext(ctx, "Dropping update without sender", "update_id", update.ID)
			}
		}
	}
}
