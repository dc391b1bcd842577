package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/seyedbot/internal/middleware"
	"github.com/set-night/seyedbot/internal/workflow"
)

// Engine is the part of the workflow engine the bot forwards to.
type Engine interface {
	Start(ctx context.Context, ev workflow.Event) workflow.State
	Panel(ctx context.Context, ev workflow.Event) workflow.State
	Cancel(ctx context.Context, ev workflow.Event) workflow.State
	SendPhone(ctx context.Context, ev workflow.Event) workflow.State
	Callback(ctx context.Context, ev workflow.Event) workflow.State
	Message(ctx context.Context, ev workflow.Event) workflow.State
}

// Handler adapts bot updates to engine entry points.
type Handler struct {
	bot    *bot.Bot
	engine Engine
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot    *bot.Bot
	Engine Engine
}

func New(deps Deps) *Handler {
	return &Handler{
		bot:    deps.Bot,
		engine: deps.Engine,
	}
}

type entryPoint func(ctx context.Context, ev workflow.Event) workflow.State

// forward runs an entry point with the event loaded by middleware.EventLoader.
func (h *Handler) forward(name string, fn entryPoint) bot.HandlerFunc {
	return func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		ev, ok := middleware.GetEvent(ctx)
		if !ok {
			return
		}
		next := fn(ctx, ev)
		slog.Debug("event handled",
			"entry", name,
			"event", ev.Signature(),
			"user_id", ev.UserID,
			"state", next.String(),
		)
	}
}

// Default handles every message no command matched: plain text, menu
// labels, contacts and media.
func (h *Handler) Default(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.forward("message", h.engine.Message)(ctx, b, update)
}
