package workflow

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/set-night/seyedbot/internal/domain"
)

// Messenger is the outbound side of the messaging platform.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, markup *Markup) error
	SendMedia(ctx context.Context, chatID int64, media domain.Media, caption string, markup *Markup) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, markup *Markup) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error
	MemberStatus(ctx context.Context, userID int64) (MemberStatus, error)
}

type MemberStatus string

const (
	MemberCreator       MemberStatus = "creator"
	MemberAdministrator MemberStatus = "administrator"
	MemberMember        MemberStatus = "member"
	MemberRestricted    MemberStatus = "restricted"
	MemberLeft          MemberStatus = "left"
	MemberKicked        MemberStatus = "kicked"
)

// Joined reports whether the status counts as membership.
func (s MemberStatus) Joined() bool {
	switch s {
	case MemberCreator, MemberAdministrator, MemberMember, MemberRestricted:
		return true
	}
	return false
}

type UserStore interface {
	UpsertProfile(ctx context.Context, p domain.Profile) (created bool, err error)
	HasPhone(ctx context.Context, userID int64) (bool, error)
	SetPhone(ctx context.Context, p domain.Profile, phone string) error
	Get(ctx context.Context, userID int64) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	Recipients(ctx context.Context, filter domain.BroadcastFilter) ([]int64, error)
	Stats(ctx context.Context) (domain.UserStats, error)
}

type AdminRegistry interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	Add(ctx context.Context, userID int64) (added bool, err error)
	Remove(ctx context.Context, userID int64) (removed bool, err error)
	List(ctx context.Context) ([]domain.Admin, error)
	Removable(ctx context.Context) ([]domain.Admin, error)
	IDs(ctx context.Context) ([]int64, error)
}

type ContentStore interface {
	List(ctx context.Context, kind domain.ContentKind) ([]domain.ContentRecord, error)
	Get(ctx context.Context, kind domain.ContentKind, id int64) (*domain.ContentRecord, error)
	Items(ctx context.Context, parentID int64) ([]domain.ContentItem, error)
	Create(ctx context.Context, kind domain.ContentKind, c domain.NewContent, items []domain.PendingItem) (int64, error)
	Update(ctx context.Context, kind domain.ContentKind, id int64, p domain.Patch) error
	Delete(ctx context.Context, kind domain.ContentKind, id int64) error
	AppendItem(ctx context.Context, parentID int64, m domain.Media) (*domain.ContentItem, error)
	ReplaceItem(ctx context.Context, parentID, itemID int64, m domain.Media) error
	DeleteItem(ctx context.Context, parentID, itemID int64) error
	RecordView(ctx context.Context, recordID, userID int64) error
	ViewCount(ctx context.Context, recordID int64) (int64, error)
}

type ConsultationStore interface {
	Create(ctx context.Context, userID int64, receipt domain.Media, amount decimal.Decimal) (*domain.ConsultationRequest, error)
	Get(ctx context.Context, id int64) (*domain.ConsultationRequest, error)
	Decide(ctx context.Context, id int64, status domain.ConsultationStatus, reason *string, decidedBy int64) (*domain.ConsultationRequest, error)
}

// Flags holds runtime-toggleable settings.
type Flags interface {
	PhoneRequired() bool
	SetPhoneRequired(bool)
}

// Recorder receives workflow metrics.
type Recorder interface {
	GuardRejected(guard string)
	InvalidEvent(state State)
	DraftCommitted(kind domain.ContentKind)
	BroadcastDelivered(ok bool)
	ConsultationDecided(status domain.ConsultationStatus)
}

// Auditor receives business events worth a human-readable trail.
type Auditor interface {
	Registered(ctx context.Context, u domain.Profile, phone string)
	AdminChanged(ctx context.Context, actor int64, target domain.User, granted bool)
	Broadcast(ctx context.Context, actor int64, filter domain.BroadcastFilter, res domain.BroadcastResult)
	ConsultationSubmitted(ctx context.Context, req *domain.ConsultationRequest, p domain.Profile)
	ConsultationDecided(ctx context.Context, req *domain.ConsultationRequest, actor int64)
}

type nopRecorder struct{}

func (nopRecorder) GuardRejected(string)                          {}
func (nopRecorder) InvalidEvent(State)                            {}
func (nopRecorder) DraftCommitted(domain.ContentKind)             {}
func (nopRecorder) BroadcastDelivered(bool)                       {}
func (nopRecorder) ConsultationDecided(domain.ConsultationStatus) {}

type nopAuditor struct{}

func (nopAuditor) Registered(context.Context, domain.Profile, string) {}

func (nopAuditor) AdminChanged(context.Context, int64, domain.User, bool) {}

func (nopAuditor) Broadcast(context.Context, int64, domain.BroadcastFilter, domain.BroadcastResult) {}

func (nopAuditor) ConsultationSubmitted(context.Context, *domain.ConsultationRequest, domain.Profile) {}

func (nopAuditor) ConsultationDecided(context.Context, *domain.ConsultationRequest, int64) {}
