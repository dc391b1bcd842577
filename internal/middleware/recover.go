package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrorReporter forwards errors to a human-readable trail.
type ErrorReporter interface {
	LogError(ctx context.Context, err error, where string)
}

// Recover returns middleware that recovers from panics.
func Recover(report ErrorReporter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic recovered in handler",
						"panic", r,
						"update_id", update.ID,
						"stack", string(debug.Stack()),
					)
					if report != nil {
						report.LogError(ctx, fmt.Errorf("panic: %v", r), "update handler")
					}
				}
			}()
			next(ctx, b, update)
		}
	}
}
