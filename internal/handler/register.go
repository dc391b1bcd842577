package handler

import (
	"github.com/go-telegram/bot"

	"github.com/set-night/seyedbot/internal/config"
)

// Register sets up all command and callback handlers on the bot.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, config.CommandStart, bot.MatchTypePrefix, h.forward("start", h.engine.Start))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, config.CommandPanel, bot.MatchTypePrefix, h.forward("panel", h.engine.Panel))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, config.CommandCancel, bot.MatchTypePrefix, h.forward("cancel", h.engine.Cancel))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, config.CommandSendPhone, bot.MatchTypePrefix, h.forward("sendphone", h.engine.SendPhone))

	// Callbacks are routed by the engine's state machine
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.forward("callback", h.engine.Callback))
}
