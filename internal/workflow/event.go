// Package workflow drives per-user conversations: guard checks, the admin
// state machine, content drafts, catalogue menus, broadcasts and the
// consultation approval flow.
package workflow

import (
	"fmt"

	"github.com/set-night/seyedbot/internal/domain"
)

type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventCallback
	EventContact
	EventMedia
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventCommand:
		return "command"
	case EventCallback:
		return "callback"
	case EventContact:
		return "contact"
	case EventMedia:
		return "media"
	default:
		return "unknown"
	}
}

// Attachments mirrors the file fields of an inbound message. At most a few are
// set; Classify picks one by fixed priority.
type Attachments struct {
	Video     string
	Voice     string
	Audio     string
	Document  string
	Photo     string
	VideoNote string
}

// Classify returns the attached media, preferring
// video > voice > audio > document > photo > round video.
func (a Attachments) Classify() (domain.Media, bool) {
	switch {
	case a.Video != "":
		return domain.Media{FileRef: a.Video, Kind: domain.FileVideo}, true
	case a.Voice != "":
		return domain.Media{FileRef: a.Voice, Kind: domain.FileVoice}, true
	case a.Audio != "":
		return domain.Media{FileRef: a.Audio, Kind: domain.FileAudio}, true
	case a.Document != "":
		return domain.Media{FileRef: a.Document, Kind: domain.FileDocument}, true
	case a.Photo != "":
		return domain.Media{FileRef: a.Photo, Kind: domain.FilePhoto}, true
	case a.VideoNote != "":
		return domain.Media{FileRef: a.VideoNote, Kind: domain.FileVideoNote}, true
	}
	return domain.Media{}, false
}

type Contact struct {
	UserID      int64
	PhoneNumber string
}

// Event is a transport-neutral inbound update.
type Event struct {
	Kind      EventKind
	UserID    int64
	ChatID    int64
	Private   bool
	Profile   domain.Profile
	MessageID int

	Command string
	Args    string
	Text    string

	Data       string
	CallbackID string

	Contact     *Contact
	Attachments Attachments
}

// Signature is a short description used in logs and invalid-option reports.
func (e Event) Signature() string {
	switch e.Kind {
	case EventCallback:
		return "callback:" + e.Data
	case EventCommand:
		return "command:" + e.Command
	case EventMedia:
		if m, ok := e.Attachments.Classify(); ok {
			return "media:" + string(m.Kind)
		}
		return "media:unknown"
	default:
		return e.Kind.String()
	}
}

func (e Event) String() string {
	return fmt.Sprintf("%s from %d", e.Signature(), e.UserID)
}
