package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/seyedbot/internal/domain"
	"github.com/set-night/seyedbot/internal/workflow"
)

// Gateway is the Bot API side of the workflow. Every call runs under its own
// timeout; texts are sent as HTML and fall back to plain text if rejected.
type Gateway struct {
	bot     *bot.Bot
	channel any
	timeout time.Duration
}

func NewGateway(b *bot.Bot, channel any, timeout time.Duration) *Gateway {
	return &Gateway{bot: b, channel: channel, timeout: timeout}
}

func (g *Gateway) call(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// SendText sends a potentially long message, splitting it into parts if needed.
// The keyboard goes with the last part.
func (g *Gateway) SendText(ctx context.Context, chatID int64, text string, markup *workflow.Markup) error {
	parts := SplitMessage(text, MaxMessageLen)
	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeHTML,
		}
		if i == len(parts)-1 {
			params.ReplyMarkup = ReplyMarkup(markup)
		}
		if err := g.sendMessage(ctx, params); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) sendMessage(ctx context.Context, params *bot.SendMessageParams) error {
	cctx, cancel := g.call(ctx)
	defer cancel()

	_, err := g.bot.SendMessage(cctx, params)
	if isParseError(err) {
		slog.Warn("html send failed, falling back to plain text", "chat_id", params.ChatID, "error", err)
		params.ParseMode = ""
		params.Text = PlainText(params.Text)
		_, err = g.bot.SendMessage(cctx, params)
	}
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendMedia re-sends a stored file by its file ID. Captions longer than the
// Bot API allows are sent as a separate message.
func (g *Gateway) SendMedia(ctx context.Context, chatID int64, media domain.Media, caption string, markup *workflow.Markup) error {
	var overflow string
	if len([]rune(caption)) > MaxCaptionLen {
		caption, overflow = "", caption
	}

	rm := ReplyMarkup(markup)
	if overflow != "" {
		rm = nil
	}

	if err := g.sendFile(ctx, chatID, media, caption, models.ParseModeHTML, rm); err != nil {
		if !isParseError(err) {
			return err
		}
		if err := g.sendFile(ctx, chatID, media, PlainText(caption), "", rm); err != nil {
			return err
		}
	}
	if overflow != "" {
		return g.SendText(ctx, chatID, overflow, markup)
	}
	return nil
}

func (g *Gateway) sendFile(ctx context.Context, chatID int64, media domain.Media, caption string, mode models.ParseMode, rm models.ReplyMarkup) error {
	cctx, cancel := g.call(ctx)
	defer cancel()

	file := &models.InputFileString{Data: media.FileRef}

	var err error
	switch media.Kind {
	case domain.FileVideo:
		_, err = g.bot.SendVideo(cctx, &bot.SendVideoParams{ChatID: chatID, Video: file, Caption: caption, ParseMode: mode, ReplyMarkup: rm})
	case domain.FileVoice:
		_, err = g.bot.SendVoice(cctx, &bot.SendVoiceParams{ChatID: chatID, Voice: file, Caption: caption, ParseMode: mode, ReplyMarkup: rm})
	case domain.FileAudio:
		_, err = g.bot.SendAudio(cctx, &bot.SendAudioParams{ChatID: chatID, Audio: file, Caption: caption, ParseMode: mode, ReplyMarkup: rm})
	case domain.FileDocument:
		_, err = g.bot.SendDocument(cctx, &bot.SendDocumentParams{ChatID: chatID, Document: file, Caption: caption, ParseMode: mode, ReplyMarkup: rm})
	case domain.FilePhoto:
		_, err = g.bot.SendPhoto(cctx, &bot.SendPhotoParams{ChatID: chatID, Photo: file, Caption: caption, ParseMode: mode, ReplyMarkup: rm})
	case domain.FileVideoNote:
		// round videos carry no caption
		_, err = g.bot.SendVideoNote(cctx, &bot.SendVideoNoteParams{ChatID: chatID, VideoNote: file, ReplyMarkup: rm})
		if err == nil && caption != "" {
			_, err = g.bot.SendMessage(cctx, &bot.SendMessageParams{ChatID: chatID, Text: caption, ParseMode: mode})
		}
	default:
		return fmt.Errorf("send media: unsupported kind %q", media.Kind)
	}
	if err != nil {
		return fmt.Errorf("send %s: %w", media.Kind, err)
	}
	return nil
}

// EditText edits a message with potentially long text. Only inline keyboards
// can be attached to edited messages.
func (g *Gateway) EditText(ctx context.Context, chatID int64, messageID int, text string, markup *workflow.Markup) error {
	if markup != nil && !markup.Inline {
		return fmt.Errorf("edit message: reply keyboards cannot be edited in")
	}
	text = Truncate(text, MaxMessageLen)

	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = InlineKeyboard(markup.Rows)
	}

	cctx, cancel := g.call(ctx)
	defer cancel()

	_, err := g.bot.EditMessageText(cctx, params)
	if isParseError(err) {
		params.ParseMode = ""
		params.Text = PlainText(text)
		_, err = g.bot.EditMessageText(cctx, params)
	}
	if err != nil && !isNotModified(err) {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (g *Gateway) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	cctx, cancel := g.call(ctx)
	defer cancel()

	if _, err := g.bot.AnswerCallbackQuery(cctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (g *Gateway) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	cctx, cancel := g.call(ctx)
	defer cancel()

	if _, err := g.bot.CopyMessage(cctx, &bot.CopyMessageParams{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	}); err != nil {
		return fmt.Errorf("copy message: %w", err)
	}
	return nil
}

// MemberStatus looks the user up in the required channel.
func (g *Gateway) MemberStatus(ctx context.Context, userID int64) (workflow.MemberStatus, error) {
	cctx, cancel := g.call(ctx)
	defer cancel()

	m, err := g.bot.GetChatMember(cctx, &bot.GetChatMemberParams{
		ChatID: g.channel,
		UserID: userID,
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	if m.Type == models.ChatMemberTypeRestricted && m.Restricted != nil && !m.Restricted.IsMember {
		return workflow.MemberLeft, nil
	}
	return workflow.MemberStatus(m.Type), nil
}
