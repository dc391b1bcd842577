package telegram

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/set-night/seyedbot/internal/domain"
	"github.com/set-night/seyedbot/internal/workflow"
)

// EventFromUpdate converts an update into a workflow event. Updates the
// workflow has no use for report false.
func EventFromUpdate(update *models.Update) (workflow.Event, bool) {
	switch {
	case update == nil:
		return workflow.Event{}, false
	case update.CallbackQuery != nil:
		return eventFromCallback(update.CallbackQuery)
	case update.Message != nil:
		return eventFromMessage(update.Message)
	}
	return workflow.Event{}, false
}

func eventFromCallback(cq *models.CallbackQuery) (workflow.Event, bool) {
	ev := workflow.Event{
		Kind:       workflow.EventCallback,
		UserID:     cq.From.ID,
		ChatID:     cq.From.ID,
		Private:    true,
		Profile:    profile(&cq.From),
		Data:       cq.Data,
		CallbackID: cq.ID,
	}
	if msg := cq.Message.Message; msg != nil {
		ev.ChatID = msg.Chat.ID
		ev.Private = msg.Chat.Type == models.ChatTypePrivate
		ev.MessageID = msg.ID
	}
	return ev, true
}

func eventFromMessage(msg *models.Message) (workflow.Event, bool) {
	if msg.From == nil {
		return workflow.Event{}, false
	}
	ev := workflow.Event{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		Private:   msg.Chat.Type == models.ChatTypePrivate,
		Profile:   profile(msg.From),
		MessageID: msg.ID,
	}

	if msg.Contact != nil {
		ev.Kind = workflow.EventContact
		ev.Contact = &workflow.Contact{UserID: msg.Contact.UserID, PhoneNumber: msg.Contact.PhoneNumber}
		return ev, true
	}

	ev.Attachments = attachments(msg)
	if _, ok := ev.Attachments.Classify(); ok {
		ev.Kind = workflow.EventMedia
		ev.Text = msg.Caption
		return ev, true
	}

	if msg.Text == "" {
		return workflow.Event{}, false
	}
	ev.Text = msg.Text
	ev.Kind = workflow.EventText
	if cmd, args, ok := ParseCommand(msg.Text); ok {
		ev.Kind = workflow.EventCommand
		ev.Command, ev.Args = cmd, args
	}
	return ev, true
}

// ParseCommand splits "/cmd@bot args" into "/cmd" and "args".
func ParseCommand(text string) (cmd, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, args, _ = strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	if cmd == "/" {
		return "", "", false
	}
	return strings.ToLower(cmd), strings.TrimSpace(args), true
}

func attachments(msg *models.Message) workflow.Attachments {
	var a workflow.Attachments
	if msg.Video != nil {
		a.Video = msg.Video.FileID
	}
	if msg.Voice != nil {
		a.Voice = msg.Voice.FileID
	}
	if msg.Audio != nil {
		a.Audio = msg.Audio.FileID
	}
	if msg.Document != nil {
		a.Document = msg.Document.FileID
	}
	if len(msg.Photo) > 0 {
		// largest size comes last
		a.Photo = msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.VideoNote != nil {
		a.VideoNote = msg.VideoNote.FileID
	}
	return a
}

func profile(u *models.User) domain.Profile {
	return domain.Profile{
		TelegramID: u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
	}
}
