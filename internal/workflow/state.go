package workflow

import (
	"strings"

	"github.com/set-night/seyedbot/internal/domain"
)

// State identifies where a user is in a conversation.
type State string

const (
	// StateIdle means the user is outside any workflow.
	StateIdle State = ""

	StateMain             State = "main"
	StateSettings         State = "settings"
	StateManageAdmins     State = "manage_admins"
	StateAddAdminPhone    State = "add_admin_phone"
	StateRemoveAdmin      State = "remove_admin"
	StateBroadcastMenu    State = "broadcast_menu"
	StateBroadcastMessage State = "broadcast_message"

	StateServices     State = "services"
	StateAwaitReceipt State = "await_receipt"
)

// Step is one stage of a content authoring workflow.
type Step string

const (
	StepMenu              Step = "menu"
	StepAddTitle          Step = "add_title"
	StepAddDescription    Step = "add_description"
	StepAddCover          Step = "add_cover"
	StepAddContent        Step = "add_content"
	StepEditTitle         Step = "edit_title"
	StepEditDescription   Step = "edit_description"
	StepEditCover         Step = "edit_cover"
	StepManageContentList Step = "manage_content_list"
	StepAddContentItem    Step = "add_content_item"
	StepEditContentItem   Step = "edit_content_item"
)

var contentSteps = []Step{
	StepMenu, StepAddTitle, StepAddDescription, StepAddCover, StepAddContent,
	StepEditTitle, StepEditDescription, StepEditCover,
	StepManageContentList, StepAddContentItem, StepEditContentItem,
}

// ContentState is the admin authoring state for a kind and step, e.g. "webinar:add_title".
func ContentState(kind domain.ContentKind, step Step) State {
	return State(string(kind) + ":" + string(step))
}

// BrowseState is the public catalogue state for a kind.
func BrowseState(kind domain.ContentKind) State {
	return State("browse:" + string(kind))
}

// Content splits a content authoring state into its kind and step.
func (s State) Content() (domain.ContentKind, Step, bool) {
	kind, step, ok := strings.Cut(string(s), ":")
	if !ok || !domain.ContentKind(kind).Valid() {
		return "", "", false
	}
	return domain.ContentKind(kind), Step(step), true
}

// Browsing reports the catalogue kind a user is browsing.
func (s State) Browsing() (domain.ContentKind, bool) {
	kind, ok := strings.CutPrefix(string(s), "browse:")
	if !ok || !domain.ContentKind(kind).Valid() {
		return "", false
	}
	return domain.ContentKind(kind), true
}

func (s State) String() string {
	if s == StateIdle {
		return "idle"
	}
	return string(s)
}
