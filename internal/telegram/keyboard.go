package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/set-night/seyedbot/internal/workflow"
)

// ReplyMarkup converts a workflow keyboard into its Bot API form.
func ReplyMarkup(m *workflow.Markup) models.ReplyMarkup {
	switch {
	case m == nil:
		return nil
	case m.Remove:
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	case m.Inline:
		return InlineKeyboard(m.Rows)
	default:
		return ReplyKeyboard(m)
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows [][]workflow.Button) *models.InlineKeyboardMarkup {
	out := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				r = append(r, models.InlineKeyboardButton{Text: b.Text, URL: b.URL})
				continue
			}
			r = append(r, models.InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		out = append(out, r)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: out}
}

// ReplyKeyboard creates a resized reply keyboard.
func ReplyKeyboard(m *workflow.Markup) *models.ReplyKeyboardMarkup {
	out := make([][]models.KeyboardButton, 0, len(m.Rows))
	for _, row := range m.Rows {
		r := make([]models.KeyboardButton, 0, len(row))
		for _, b := range row {
			r = append(r, models.KeyboardButton{Text: b.Text, RequestContact: b.RequestContact})
		}
		out = append(out, r)
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:              out,
		ResizeKeyboard:        true,
		OneTimeKeyboard:       m.OneTime,
		InputFieldPlaceholder: m.Placeholder,
	}
}
