package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/seyedbot/internal/telegram"
	"github.com/set-night/seyedbot/internal/workflow"
)

type ctxKey string

const EventKey ctxKey = "event"

// GetEvent extracts the workflow event from context.
func GetEvent(ctx context.Context) (workflow.Event, bool) {
	ev, ok := ctx.Value(EventKey).(workflow.Event)
	return ev, ok
}

// WithEvent stores ev in ctx.
func WithEvent(ctx context.Context, ev workflow.Event) context.Context {
	return context.WithValue(ctx, EventKey, ev)
}

// EventLoader converts the update into a workflow event and drops updates
// that carry nothing the workflow handles.
func EventLoader() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			ev, ok := telegram.EventFromUpdate(update)
			if !ok {
				return
			}
			next(WithEvent(ctx, ev), b, update)
		}
	}
}
