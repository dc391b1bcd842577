package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/set-night/seyedbot/internal/domain"
)

const (
	CallbackVerifyMembership = "verify_membership"
	CallbackRegisterPhone    = "register_phone"

	phoneDigits   = 10
	maxLabelRunes = 40
)

type Deps struct {
	Messenger     Messenger
	Users         UserStore
	Admins        AdminRegistry
	Content       ContentStore
	Consultations ConsultationStore
	Flags         Flags
	Recorder      Recorder
	Auditor       Auditor
	Sessions      *Store
}

type Options struct {
	InviteLink           string
	Payment              PaymentInfo
	BroadcastConcurrency int
	SendTimeout          time.Duration
}

// Engine is the conversation core. Each exported entry point handles one
// inbound event for its sender and returns the sender's next state.
type Engine struct {
	msg     Messenger
	users   UserStore
	admins  AdminRegistry
	content ContentStore
	flags   Flags
	rec     Recorder
	audit   Auditor

	sessions   *Store
	router     *Router
	drafts     *Accumulator
	catalogue  *Catalogue
	dispatcher *Dispatcher
	bridge     *Bridge

	privateOnly GuardChain
	contact     GuardChain
	entry       GuardChain
	admin       GuardChain

	inviteLink string
	background errgroup.Group
}

func New(d Deps, o Options) *Engine {
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Auditor == nil {
		d.Auditor = nopAuditor{}
	}
	if d.Sessions == nil {
		d.Sessions = NewStore()
	}

	e := &Engine{
		msg:        d.Messenger,
		users:      d.Users,
		admins:     d.Admins,
		content:    d.Content,
		flags:      d.Flags,
		rec:        d.Recorder,
		audit:      d.Auditor,
		sessions:   d.Sessions,
		router:     NewRouter(),
		drafts:     NewAccumulator(d.Content, d.Recorder),
		catalogue:  NewCatalogue(d.Content),
		dispatcher: NewDispatcher(d.Users, d.Messenger, d.Recorder, o.BroadcastConcurrency, o.SendTimeout),
		bridge:     NewBridge(d.Consultations, d.Admins, d.Messenger, o.Payment, d.Recorder, d.Auditor, o.BroadcastConcurrency),
		inviteLink: o.InviteLink,
	}

	e.privateOnly = NewGuardChain(d.Users, d.Recorder, e.privateGuard())
	e.contact = e.privateOnly.With(e.memberGuard())
	e.entry = e.contact.With(e.registeredGuard())
	e.admin = e.entry.With(e.adminGuard())

	e.registerPanel()
	for _, kind := range domain.ContentKinds {
		(&contentFlow{e: e, kind: kind}).register()
	}
	return e
}

// Sessions exposes the session store for the idle sweep.
func (e *Engine) Sessions() *Store {
	return e.sessions
}

// State reports the current state of a user.
func (e *Engine) State(userID int64) State {
	return e.sessions.State(userID)
}

// Start shows the main menu, abandoning any workflow in progress.
func (e *Engine) Start(ctx context.Context, ev Event) State {
	return e.turn(ctx, ev, func(s *Session) State {
		if !e.allow(ctx, e.entry, s, ev) {
			return s.State
		}
		s.Clear()
		e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtMainMenu)
		return StateIdle
	})
}

// Panel enters the admin panel. Calling it from inside the panel resets to Main.
func (e *Engine) Panel(ctx context.Context, ev Event) State {
	return e.turn(ctx, ev, func(s *Session) State {
		return e.enterPanel(ctx, s, ev)
	})
}

// Cancel drops all draft and selection data from any state.
func (e *Engine) Cancel(ctx context.Context, ev Event) State {
	return e.turn(ctx, ev, func(s *Session) State {
		s.Clear()
		if !e.allow(ctx, e.entry, s, ev) {
			return StateIdle
		}
		e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtCancelled)
		return StateIdle
	})
}

// SendPhone asks the user to share their contact.
func (e *Engine) SendPhone(ctx context.Context, ev Event) State {
	return e.turn(ctx, ev, func(s *Session) State {
		if e.allow(ctx, e.contact, s, ev) {
			e.promptContact(ctx, s, ev, txtSendContact)
		}
		return s.State
	})
}

// Callback routes a button press by its data prefix.
func (e *Engine) Callback(ctx context.Context, ev Event) State {
	return e.turn(ctx, ev, func(s *Session) State {
		switch {
		case ev.Data == CallbackVerifyMembership:
			return e.verifyMembership(ctx, s, ev)
		case ev.Data == CallbackRegisterPhone:
			if e.allow(ctx, e.contact, s, ev) {
				e.promptContact(ctx, s, ev, txtSendContact)
			}
			return s.State
		case strings.HasPrefix(ev.Data, "consultation:"):
			return e.consultationCallback(ctx, s, ev)
		}
		if !e.router.Has(s.State) {
			e.alert(ctx, s, ev, txtSessionExpired)
			return s.State
		}
		return e.dispatch(ctx, s, ev)
	})
}

// Message handles text, media and contact messages.
func (e *Engine) Message(ctx context.Context, ev Event) State {
	return e.turn(ctx, ev, func(s *Session) State {
		switch {
		case ev.Kind == EventContact:
			return e.handleContact(ctx, s, ev)
		case ev.Kind == EventText && ev.Text == LabelAdminPanel:
			return e.enterPanel(ctx, s, ev)
		case s.rejecting != 0 || s.relay != nil:
			return e.captureDecision(ctx, s, ev)
		case e.router.Has(s.State):
			return e.dispatch(ctx, s, ev)
		}
		return e.publicMessage(ctx, s, ev)
	})
}

// turn runs fn with the sender's session locked. A panic in fn is logged,
// leaves the state unchanged and drops the turn's deferred work. Deferred
// work runs in the background once the lock is released.
func (e *Engine) turn(ctx context.Context, ev Event, fn func(s *Session) State) State {
	s := e.sessions.Acquire(ev.UserID)
	answered := false
	s.answered = &answered
	prev := s.State

	next, panicked := e.protect(ev, func() State { return fn(s) })
	if panicked {
		next = prev
	}
	s.State = next
	s.answered = nil

	deferred := e.sessions.Release(s)
	if panicked {
		deferred = nil
		if ev.Kind == EventCallback && !answered {
			answered = true
			if err := e.msg.AnswerCallback(ctx, ev.CallbackID, txtGenericError, true); err != nil {
				slog.Debug("failed to answer callback", "user_id", ev.UserID, "error", err)
			}
		} else {
			e.send(ctx, ev.ChatID, txtGenericError, nil)
		}
	}
	if ev.Kind == EventCallback && !answered {
		if err := e.msg.AnswerCallback(ctx, ev.CallbackID, "", false); err != nil {
			slog.Debug("failed to answer callback", "user_id", ev.UserID, "error", err)
		}
	}

	bg := context.WithoutCancel(ctx)
	for _, run := range deferred {
		e.background.Go(func() error {
			e.protect(ev, func() State {
				run(bg)
				return ""
			})
			return nil
		})
	}
	return next
}

func (e *Engine) protect(ev Event, fn func() State) (next State, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			slog.Error("panic while handling event",
				"user_id", ev.UserID,
				"kind", ev.Kind,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	return fn(), false
}

// Wait blocks until background work started by earlier events has finished.
// Call it after the update loop has stopped.
func (e *Engine) Wait() {
	_ = e.background.Wait()
}

// allow runs chain and clears the session when a guard ejects the user
// from the admin machine.
func (e *Engine) allow(ctx context.Context, chain GuardChain, s *Session, ev Event) bool {
	ok, _ := chain.Allow(ctx, s, ev)
	if !ok && e.router.Has(s.State) {
		s.Clear()
	}
	return ok
}

func (e *Engine) dispatch(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.admin, s, ev) {
		return s.State
	}
	h, ok := e.router.Resolve(s.State, ev)
	if !ok {
		e.invalid(ctx, s, ev)
		return s.State
	}
	return h(ctx, s, ev)
}

func (e *Engine) invalid(ctx context.Context, s *Session, ev Event) {
	e.rec.InvalidEvent(s.State)
	err := &domain.InvalidEventError{State: s.State.String(), Event: ev.Signature()}
	slog.Debug("invalid event", "user_id", ev.UserID, "error", err)
	if ev.Kind == EventCallback {
		e.alert(ctx, s, ev, txtInvalidOption)
		return
	}
	e.send(ctx, ev.ChatID, txtInvalidOption, nil)
}

func (e *Engine) privateGuard() Guard {
	return Guard{Name: "private", Check: func(ctx context.Context, s *Session, ev Event) bool {
		if ev.Private {
			return true
		}
		if ev.Kind == EventCallback {
			e.alert(ctx, s, ev, txtPrivateOnly)
		} else {
			e.send(ctx, ev.ChatID, txtPrivateOnly, nil)
		}
		return false
	}}
}

// memberGuard fails closed when membership cannot be determined.
func (e *Engine) memberGuard() Guard {
	return Guard{Name: "member", Check: func(ctx context.Context, s *Session, ev Event) bool {
		if e.isMember(ctx, ev.UserID) {
			return true
		}
		e.promptMembership(ctx, s, ev, false)
		return false
	}}
}

func (e *Engine) registeredGuard() Guard {
	return Guard{Name: "registered", Check: func(ctx context.Context, s *Session, ev Event) bool {
		if !e.flags.PhoneRequired() {
			return true
		}
		ok, err := e.users.HasPhone(ctx, ev.UserID)
		if err != nil {
			slog.Error("failed to check phone", "user_id", ev.UserID, "error", err)
			e.reply(ctx, s, ev, txtGenericError)
			return false
		}
		if ok {
			return true
		}
		e.promptContact(ctx, s, ev, txtSendContact)
		return false
	}}
}

func (e *Engine) adminGuard() Guard {
	return Guard{Name: "admin", Check: func(ctx context.Context, s *Session, ev Event) bool {
		if e.isAdmin(ctx, ev.UserID) {
			return true
		}
		if e.router.Has(s.State) {
			e.respond(ctx, s, ev, txtAccessRevoked, nil)
			return false
		}
		e.reply(ctx, s, ev, txtNoAccess)
		return false
	}}
}

func (e *Engine) isMember(ctx context.Context, userID int64) bool {
	status, err := e.msg.MemberStatus(ctx, userID)
	if err != nil {
		slog.Warn("failed to fetch chat member", "user_id", userID, "error", err)
		return false
	}
	return status.Joined()
}

func (e *Engine) isAdmin(ctx context.Context, userID int64) bool {
	ok, err := e.admins.IsAdmin(ctx, userID)
	if err != nil {
		slog.Error("failed to check admin", "user_id", userID, "error", err)
		return false
	}
	return ok
}

func (e *Engine) verifyMembership(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.privateOnly, s, ev) {
		return s.State
	}
	if !e.isMember(ctx, ev.UserID) {
		e.promptMembership(ctx, s, ev, true)
		return s.State
	}
	e.respond(ctx, s, ev, txtMembershipOK, nil)

	if e.flags.PhoneRequired() {
		ok, err := e.users.HasPhone(ctx, ev.UserID)
		if err != nil {
			slog.Error("failed to check phone", "user_id", ev.UserID, "error", err)
		}
		if err == nil && !ok {
			e.send(ctx, ev.ChatID, txtSendContactAfterOK, contactMarkup())
			return s.State
		}
	}
	e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtMainMenu)
	return s.State
}

func (e *Engine) handleContact(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.contact, s, ev) {
		return s.State
	}
	if ev.Contact == nil || ev.Contact.UserID != ev.UserID {
		e.send(ctx, ev.ChatID, txtOwnContactOnly, contactMarkup())
		return s.State
	}
	phone, err := NormalizePhone(ev.Contact.PhoneNumber)
	if err != nil {
		e.send(ctx, ev.ChatID, txtInvalidPhone, contactMarkup())
		return s.State
	}
	if err := e.users.SetPhone(ctx, ev.Profile, phone); err != nil {
		slog.Error("failed to save phone", "user_id", ev.UserID, "error", err)
		e.send(ctx, ev.ChatID, txtGenericError, nil)
		return s.State
	}
	e.audit.Registered(ctx, ev.Profile, phone)
	e.send(ctx, ev.ChatID, txtPhoneSaved, RemoveKeyboard())
	e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtMainMenu)
	return s.State
}

// NormalizePhone keeps the last ten digits of raw.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if len(digits) < phoneDigits {
		return "", domain.ErrInvalidPhone
	}
	return digits[len(digits)-phoneDigits:], nil
}

func (e *Engine) promptMembership(ctx context.Context, s *Session, ev Event, again bool) {
	text := txtJoinChannel
	if again {
		text = txtJoinChannelAgain
	}
	var rows [][]Button
	if e.inviteLink != "" {
		rows = append(rows, Row(URLButton("🔗 عضویت در کانال", e.inviteLink)))
	}
	rows = append(rows, Row(CallbackButton("✅ تایید عضویت", CallbackVerifyMembership)))
	e.respond(ctx, s, ev, text, Inline(rows...))
}

func (e *Engine) promptContact(ctx context.Context, s *Session, ev Event, text string) {
	e.toast(ctx, s, ev, "")
	e.send(ctx, ev.ChatID, text, contactMarkup())
}

func contactMarkup() *Markup {
	return &Markup{
		Rows:        [][]Button{{{Text: LabelSendContact, RequestContact: true}}},
		OneTime:     true,
		Placeholder: txtContactPlaceholder,
	}
}

func (e *Engine) mainMenu(ctx context.Context, userID int64) *Markup {
	rows := [][]Button{
		Row(LabelButton(LabelCaseStudies)),
		Row(LabelButton(LabelWebinars)),
		Row(LabelButton(LabelLessons)),
		Row(LabelButton(LabelConsultation)),
		Row(LabelButton(LabelServices)),
	}
	if e.isAdmin(ctx, userID) {
		rows = append(rows, Row(LabelButton(LabelAdminPanel)))
	}
	return Reply(rows...)
}

func (e *Engine) sendMainMenu(ctx context.Context, chatID, userID int64, text string) {
	e.send(ctx, chatID, text, e.mainMenu(ctx, userID))
}

func (e *Engine) send(ctx context.Context, chatID int64, text string, m *Markup) {
	if err := e.msg.SendText(ctx, chatID, text, m); err != nil {
		slog.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (e *Engine) sendMedia(ctx context.Context, chatID int64, media domain.Media, caption string, m *Markup) {
	if err := e.msg.SendMedia(ctx, chatID, media, caption, m); err != nil {
		slog.Warn("failed to send media", "chat_id", chatID, "kind", media.Kind, "error", err)
	}
}

// respond edits the pressed message in place for callbacks and sends a new
// message otherwise, or when the edit fails.
func (e *Engine) respond(ctx context.Context, s *Session, ev Event, text string, m *Markup) {
	if ev.Kind == EventCallback && ev.MessageID != 0 && (m == nil || m.Inline) {
		if err := e.msg.EditText(ctx, ev.ChatID, ev.MessageID, text, m); err == nil {
			return
		}
	}
	e.send(ctx, ev.ChatID, text, m)
}

// reply shows a short notice: an alert for callbacks, a message otherwise.
func (e *Engine) reply(ctx context.Context, s *Session, ev Event, text string) {
	if ev.Kind == EventCallback {
		e.alert(ctx, s, ev, text)
		return
	}
	e.send(ctx, ev.ChatID, text, nil)
}

func (e *Engine) alert(ctx context.Context, s *Session, ev Event, text string) {
	e.answerCallback(ctx, s, ev, text, true)
}

func (e *Engine) toast(ctx context.Context, s *Session, ev Event, text string) {
	e.answerCallback(ctx, s, ev, text, false)
}

func (e *Engine) answerCallback(ctx context.Context, s *Session, ev Event, text string, alert bool) {
	if ev.Kind != EventCallback || (s.answered != nil && *s.answered) {
		return
	}
	if s.answered != nil {
		*s.answered = true
	}
	if err := e.msg.AnswerCallback(ctx, ev.CallbackID, text, alert); err != nil {
		slog.Debug("failed to answer callback", "user_id", ev.UserID, "error", err)
	}
}

func (e *Engine) storageError(ctx context.Context, s *Session, ev Event, op string, err error) {
	slog.Error("failed to "+op, "user_id", ev.UserID, "error", err)
	e.reply(ctx, s, ev, txtGenericError)
}

func parseID(data, prefix string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id from %q: %w", data, err)
	}
	return id, nil
}

func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelRunes {
		return s
	}
	return string(r[:maxLabelRunes-1]) + "…"
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrContentNotFound) || errors.Is(err, domain.ErrItemNotFound)
}
