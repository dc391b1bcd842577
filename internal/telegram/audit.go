package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/seyedbot/internal/config"
	"github.com/set-night/seyedbot/internal/domain"
)

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeRegistration LogType = "registration"
	LogTypeAdmins       LogType = "admins"
	LogTypeBroadcast    LogType = "broadcast"
	LogTypeConsultation LogType = "consultation"
)

// AuditLog posts business events to topics of a Telegram log chat. It is a
// no-op unless LOG_TELEGRAM_CHAT_ID and the topic for the event are set.
type AuditLog struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewAuditLog(b *bot.Bot, cfg *config.Config) *AuditLog {
	return &AuditLog{bot: b, cfg: cfg}
}

func (l *AuditLog) Log(ctx context.Context, logType LogType, message string) {
	if l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.topicID(logType)
	if topicID == 0 {
		return
	}

	if len([]rune(message)) > MaxMessageLen {
		message = string([]rune(message)[:MaxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.AuditLogTimeout)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       models.ParseModeHTML,
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *AuditLog) LogError(ctx context.Context, err error, where string) {
	msg := fmt.Sprintf("❌ <b>Error</b>\n\n<b>Context:</b> %s\n<b>Error:</b> <code>%s</code>\n<b>Time:</b> %s",
		html.EscapeString(where), html.EscapeString(err.Error()), time.Now().Format(time.DateTime))
	l.Log(ctx, LogTypeError, msg)
}

func (l *AuditLog) Registered(ctx context.Context, p domain.Profile, phone string) {
	msg := fmt.Sprintf("👤 <b>New Registration</b>\n\n<b>ID:</b> <code>%d</code>\n<b>Name:</b> %s\n<b>Username:</b> %s\n<b>Phone:</b> %s",
		p.TelegramID, html.EscapeString(fullName(p)), username(p.Username), phone)
	l.Log(ctx, LogTypeRegistration, msg)
}

func (l *AuditLog) AdminChanged(ctx context.Context, actor int64, target domain.User, granted bool) {
	action := "revoked"
	if granted {
		action = "granted"
	}
	msg := fmt.Sprintf("🛠 <b>Admin %s</b>\n\n<b>User:</b> <code>%d</code> %s\n<b>Phone:</b> %s\n<b>By:</b> <code>%d</code>",
		action, target.TelegramID, html.EscapeString(target.FullName()), target.PhoneNumber, actor)
	l.Log(ctx, LogTypeAdmins, msg)
}

func (l *AuditLog) Broadcast(ctx context.Context, actor int64, filter domain.BroadcastFilter, res domain.BroadcastResult) {
	l.Log(ctx, LogTypeBroadcast, broadcastEntry(actor, filter, res))
}

func broadcastEntry(actor int64, filter domain.BroadcastFilter, res domain.BroadcastResult) string {
	return fmt.Sprintf("📣 <b>Broadcast</b> <code>%s</code>\n\n<b>Audience:</b> %s\n<b>Targeted:</b> %d\n<b>Sent:</b> %d\n<b>Failed:</b> %d\n<b>By:</b> <code>%d</code>",
		res.ID, filter, res.Targeted, res.Sent, res.Failed, actor)
}

func (l *AuditLog) ConsultationSubmitted(ctx context.Context, req *domain.ConsultationRequest, p domain.Profile) {
	msg := fmt.Sprintf("📥 <b>Consultation request #%d</b>\n\n<b>User:</b> <code>%d</code> %s\n<b>Amount:</b> %s",
		req.ID, p.TelegramID, html.EscapeString(fullName(p)), req.Amount.String())
	l.Log(ctx, LogTypeConsultation, msg)
}

func (l *AuditLog) ConsultationDecided(ctx context.Context, req *domain.ConsultationRequest, actor int64) {
	msg := fmt.Sprintf("✅ <b>Consultation request #%d %s</b>\n\n<b>User:</b> <code>%d</code>\n<b>By:</b> <code>%d</code>",
		req.ID, req.Status, req.UserID, actor)
	if req.RejectionReason != nil {
		msg += "\n<b>Reason:</b> " + html.EscapeString(*req.RejectionReason)
	}
	l.Log(ctx, LogTypeConsultation, msg)
}

func (l *AuditLog) topicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegistration
	case LogTypeAdmins:
		return l.cfg.LogTopicAdmins
	case LogTypeBroadcast:
		return l.cfg.LogTopicBroadcast
	case LogTypeConsultation:
		return l.cfg.LogTopicConsultation
	default:
		return 0
	}
}

func fullName(p domain.Profile) string {
	u := domain.User{FirstName: p.FirstName, LastName: p.LastName}
	return u.FullName()
}

func username(u string) string {
	if u == "" {
		return "-"
	}
	return "@" + html.EscapeString(u)
}
