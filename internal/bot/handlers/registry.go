package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// PickPrefix starts the callback data of every suggestion button.
const PickPrefix = "pick:"

// RegisteredHandler represents a command handler with its middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every Telegram handler keyed by its command.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	chatterMiddleware := []tgbot.Middleware{ChatterOnly(deps)}

	handlers["/suggest"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "suggest",
		Handler:     NewSuggestHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  chatterMiddleware,
	}
	handlers["/fan"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "fan",
		Handler:     NewFanHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  chatterMiddleware,
	}
	handlers[PickPrefix] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     PickPrefix,
		Handler:     NewPickHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
		Middleware:  chatterMiddleware,
	}

	return handlers
}
