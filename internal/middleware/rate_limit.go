package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const rateLimitedText = "⏳ تعداد درخواست‌ها زیاد است. لطفاً کمی صبر کنید."

// Limiter decides whether a chat may send another message.
type Limiter interface {
	Allow(ctx context.Context, chatID int64) (bool, error)
}

// RateLimited is told about every dropped message.
type RateLimited interface {
	IncRateLimited()
}

// RateLimit returns middleware that enforces per-minute rate limits on
// private messages. Storage failures let the message through.
func RateLimit(limiter Limiter, counter RateLimited) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// callbacks are answered in place and not limited
			if update.Message == nil || update.Message.Chat.Type != models.ChatTypePrivate {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID

			ok, err := limiter.Allow(ctx, chatID)
			if err != nil {
				slog.Error("rate limit check failed", "error", err, "chat_id", chatID)
				next(ctx, b, update)
				return
			}

			if !ok {
				slog.Debug("rate limited", "chat_id", chatID)
				if counter != nil {
					counter.IncRateLimited()
				}
				if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   rateLimitedText,
				}); err != nil {
					slog.Warn("failed to send rate limit notice", "chat_id", chatID, "error", err)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}
