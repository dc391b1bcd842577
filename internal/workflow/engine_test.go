package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/seyedbot/internal/domain"
)

const (
	adminID int64 = 100
	userID  int64 = 200
)

type harness struct {
	e       *Engine
	msg     *fakeMessenger
	users   *fakeUsers
	admins  *fakeAdmins
	content *fakeContent
	cons    *fakeConsultations
	flags   *fakeFlags
	rec     *countingRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		msg:     newFakeMessenger(),
		users:   newFakeUsers(),
		admins:  newFakeAdmins(adminID),
		content: newFakeContent(),
		cons:    newFakeConsultations(),
		flags:   &fakeFlags{},
		rec:     &countingRecorder{},
	}
	h.msg.members[adminID] = MemberAdministrator
	h.msg.members[userID] = MemberMember
	h.users.add(adminID, "9120000000")
	h.users.add(userID, "9121111111")

	h.e = New(Deps{
		Messenger:     h.msg,
		Users:         h.users,
		Admins:        h.admins,
		Content:       h.content,
		Consultations: h.cons,
		Flags:         h.flags,
		Recorder:      h.rec,
	}, Options{
		InviteLink:           "https://t.me/example",
		Payment:              PaymentInfo{Amount: decimal.NewFromInt(500000), Currency: "تومان", Card: "6037-0000-0000-0000", Pitch: "pitch"},
		BroadcastConcurrency: 4,
	})
	return h
}

func textEvent(uid int64, text string) Event {
	return Event{Kind: EventText, UserID: uid, ChatID: uid, Private: true, Profile: domain.Profile{TelegramID: uid}, Text: text, MessageID: 10}
}

func commandEvent(uid int64, cmd string) Event {
	ev := textEvent(uid, cmd)
	ev.Kind, ev.Command = EventCommand, cmd
	return ev
}

func callbackEvent(uid int64, data string) Event {
	return Event{Kind: EventCallback, UserID: uid, ChatID: uid, Private: true, Profile: domain.Profile{TelegramID: uid}, Data: data, CallbackID: "cb", MessageID: 11}
}

func mediaEvent(uid int64, att Attachments) Event {
	return Event{Kind: EventMedia, UserID: uid, ChatID: uid, Private: true, Profile: domain.Profile{TelegramID: uid}, Attachments: att, MessageID: 12}
}

func (h *harness) panel(t *testing.T) {
	t.Helper()
	require.Equal(t, StateMain, h.e.Panel(context.Background(), commandEvent(adminID, "/panel")))
}

func TestGuardChain(t *testing.T) {
	ctx := context.Background()

	t.Run("group chat stops at the private guard", func(t *testing.T) {
		h := newHarness(t)
		ev := textEvent(userID, LabelServices)
		ev.Private = false
		ev.ChatID = -1001

		h.e.Message(ctx, ev)

		assert.Equal(t, 1, h.rec.guards["private"])
		assert.Zero(t, h.rec.guards["member"])
		assert.Equal(t, []string{txtPrivateOnly}, h.msg.texts(-1001))
	})

	t.Run("non member is prompted and later guards never run", func(t *testing.T) {
		h := newHarness(t)
		h.msg.members[userID] = MemberLeft
		h.flags.SetPhoneRequired(true)
		h.users.hasPhoneErr = errors.New("must not be called")

		state := h.e.Message(ctx, textEvent(userID, LabelServices))

		assert.Equal(t, StateIdle, state)
		assert.Equal(t, 1, h.rec.guards["member"])
		assert.Zero(t, h.rec.guards["registered"])
		last := h.msg.last(userID)
		assert.Equal(t, txtJoinChannel, last.Text)
		require.NotNil(t, last.Markup)
		assert.Equal(t, "https://t.me/example", last.Markup.Rows[0][0].URL)
		assert.Equal(t, CallbackVerifyMembership, last.Markup.Rows[1][0].Data)
	})

	t.Run("membership lookup failure fails closed", func(t *testing.T) {
		h := newHarness(t)
		h.msg.memberErr = errors.New("chat not found")

		h.e.Start(ctx, commandEvent(userID, "/start"))

		assert.Equal(t, 1, h.rec.guards["member"])
		assert.Equal(t, txtJoinChannel, h.msg.last(userID).Text)
	})

	t.Run("missing phone asks for the contact when required", func(t *testing.T) {
		h := newHarness(t)
		h.flags.SetPhoneRequired(true)
		h.users.add(300, "")
		h.msg.members[300] = MemberMember

		h.e.Start(ctx, commandEvent(300, "/start"))

		assert.Equal(t, 1, h.rec.guards["registered"])
		last := h.msg.last(300)
		assert.Equal(t, txtSendContact, last.Text)
		require.NotNil(t, last.Markup)
		assert.True(t, last.Markup.Rows[0][0].RequestContact)
	})

	t.Run("profile is refreshed on every guarded event", func(t *testing.T) {
		h := newHarness(t)
		ev := commandEvent(userID, "/start")
		ev.Profile.FirstName = "Sara"

		h.e.Start(ctx, ev)

		u, err := h.users.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Sara", u.FirstName)
	})
}

func TestStart_ShowsMainMenu(t *testing.T) {
	ctx := context.Background()

	t.Run("regular user", func(t *testing.T) {
		h := newHarness(t)
		h.e.Start(ctx, commandEvent(userID, "/start"))

		last := h.msg.last(userID)
		assert.Equal(t, txtMainMenu, last.Text)
		require.NotNil(t, last.Markup)
		assert.Len(t, last.Markup.Rows, 5)
	})

	t.Run("admin gets the panel button", func(t *testing.T) {
		h := newHarness(t)
		h.e.Start(ctx, commandEvent(adminID, "/start"))

		rows := h.msg.last(adminID).Markup.Rows
		require.Len(t, rows, 6)
		assert.Equal(t, LabelAdminPanel, rows[5][0].Text)
	})
}

func TestTurn_PanicReleasesSession(t *testing.T) {
	ctx := context.Background()

	t.Run("message", func(t *testing.T) {
		h := newHarness(t)
		h.users.panicOnce = true

		require.NotPanics(t, func() {
			assert.Equal(t, StateIdle, h.e.Start(ctx, commandEvent(userID, "/start")))
		})
		assert.Equal(t, txtGenericError, h.msg.last(userID).Text)

		done := make(chan State, 1)
		go func() { done <- h.e.Start(ctx, commandEvent(userID, "/start")) }()
		select {
		case st := <-done:
			assert.Equal(t, StateIdle, st)
		case <-time.After(2 * time.Second):
			t.Fatal("session still locked after a panicking turn")
		}
		assert.Equal(t, txtMainMenu, h.msg.last(userID).Text)
	})

	t.Run("callback keeps the state", func(t *testing.T) {
		h := newHarness(t)
		h.panel(t)
		h.users.panicOnce = true

		assert.Equal(t, StateMain, h.e.Callback(ctx, callbackEvent(adminID, "panel:broadcast")))
		assert.Equal(t, answer{Text: txtGenericError, Alert: true}, h.msg.lastAnswer())
		assert.Equal(t, StateMain, h.e.State(adminID))

		assert.Equal(t, StateBroadcastMenu, h.e.Callback(ctx, callbackEvent(adminID, "panel:broadcast")))
	})
}

func TestPanel(t *testing.T) {
	ctx := context.Background()

	t.Run("non admin is rejected before the router", func(t *testing.T) {
		h := newHarness(t)

		state := h.e.Panel(ctx, commandEvent(userID, "/panel"))

		assert.Equal(t, StateIdle, state)
		assert.Equal(t, StateIdle, h.e.State(userID))
		assert.Equal(t, 1, h.rec.guards["admin"])
		assert.Equal(t, txtNoAccess, h.msg.last(userID).Text)
	})

	t.Run("command and menu label converge on Main", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, StateMain, h.e.Panel(ctx, commandEvent(adminID, "/panel")))
		h.e.Cancel(ctx, commandEvent(adminID, "/cancel"))
		assert.Equal(t, StateMain, h.e.Message(ctx, textEvent(adminID, LabelAdminPanel)))
	})

	t.Run("re-entry resets to Main and drops the draft", func(t *testing.T) {
		h := newHarness(t)
		h.panel(t)
		h.e.Callback(ctx, callbackEvent(adminID, "panel:webinar"))
		require.Equal(t, ContentState(domain.KindWebinar, StepAddTitle), h.e.Callback(ctx, callbackEvent(adminID, "webinar:add")))

		assert.Equal(t, StateMain, h.e.Panel(ctx, commandEvent(adminID, "/panel")))

		s := h.e.sessions.Acquire(adminID)
		defer h.e.sessions.Release(s)
		assert.Nil(t, s.Draft)
	})

	t.Run("unmatched event keeps the state", func(t *testing.T) {
		h := newHarness(t)
		h.panel(t)
		require.Equal(t, StateSettings, h.e.Callback(ctx, callbackEvent(adminID, "panel:settings")))

		assert.Equal(t, StateSettings, h.e.Message(ctx, textEvent(adminID, "hello")))
		assert.Equal(t, txtInvalidOption, h.msg.last(adminID).Text)

		assert.Equal(t, StateSettings, h.e.Callback(ctx, callbackEvent(adminID, "panel:stats")))
		assert.Equal(t, answer{Text: txtInvalidOption, Alert: true}, h.msg.lastAnswer())
		assert.Equal(t, 2, h.rec.invalid)
	})

	t.Run("revoked admin is ejected and the session cleared", func(t *testing.T) {
		h := newHarness(t)
		h.admins.stored[300] = true
		h.users.add(300, "9122222222")
		h.msg.members[300] = MemberMember
		require.Equal(t, StateMain, h.e.Panel(ctx, commandEvent(300, "/panel")))
		delete(h.admins.stored, 300)

		state := h.e.Callback(ctx, callbackEvent(300, "panel:stats"))

		assert.Equal(t, StateIdle, state)
		assert.Equal(t, txtAccessRevoked, h.msg.last(300).Text)
	})

	t.Run("stale panel button outside the machine", func(t *testing.T) {
		h := newHarness(t)
		state := h.e.Callback(ctx, callbackEvent(adminID, "panel:stats"))
		assert.Equal(t, StateIdle, state)
		assert.Equal(t, answer{Text: txtSessionExpired, Alert: true}, h.msg.lastAnswer())
	})

	t.Run("stats", func(t *testing.T) {
		h := newHarness(t)
		h.users.add(300, "")
		h.panel(t)

		h.e.Callback(ctx, callbackEvent(adminID, "panel:stats"))

		assert.Equal(t, statsText(domain.UserStats{Total: 3, WithPhone: 2, WithoutPhone: 1}), h.msg.last(adminID).Text)
	})

	t.Run("toggle phone requirement", func(t *testing.T) {
		h := newHarness(t)
		h.panel(t)
		h.e.Callback(ctx, callbackEvent(adminID, "panel:settings"))

		h.e.Callback(ctx, callbackEvent(adminID, "settings:toggle_phone"))
		assert.True(t, h.flags.PhoneRequired())
		h.e.Callback(ctx, callbackEvent(adminID, "settings:toggle_phone"))
		assert.False(t, h.flags.PhoneRequired())
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.panel(t)
	h.e.Callback(ctx, callbackEvent(adminID, "panel:lesson"))
	h.e.Callback(ctx, callbackEvent(adminID, "lesson:add"))
	h.e.Message(ctx, textEvent(adminID, "draft title"))

	state := h.e.Cancel(ctx, commandEvent(adminID, "/cancel"))

	assert.Equal(t, StateIdle, state)
	assert.Equal(t, txtCancelled, h.msg.last(adminID).Text)
	s := h.e.sessions.Acquire(adminID)
	defer h.e.sessions.Release(s)
	assert.Nil(t, s.Draft)
	assert.Empty(t, s.Selected)
}

func TestContactRegistration(t *testing.T) {
	ctx := context.Background()
	contactEvent := func(uid, owner int64, phone string) Event {
		ev := textEvent(uid, "")
		ev.Kind = EventContact
		ev.Contact = &Contact{UserID: owner, PhoneNumber: phone}
		return ev
	}

	t.Run("stores the last ten digits", func(t *testing.T) {
		h := newHarness(t)
		h.users.add(300, "")
		h.msg.members[300] = MemberMember

		h.e.Message(ctx, contactEvent(300, 300, "+98 912 345 6789"))

		u, err := h.users.Get(ctx, 300)
		require.NoError(t, err)
		assert.Equal(t, "9123456789", u.PhoneNumber)
		assert.Contains(t, h.msg.texts(300), txtPhoneSaved)
	})

	t.Run("rejects someone else's contact", func(t *testing.T) {
		h := newHarness(t)
		h.e.Message(ctx, contactEvent(userID, 999, "09120000000"))
		assert.Equal(t, txtOwnContactOnly, h.msg.last(userID).Text)
	})

	t.Run("rejects short numbers", func(t *testing.T) {
		h := newHarness(t)
		h.e.Message(ctx, contactEvent(userID, userID, "12345"))
		assert.Equal(t, txtInvalidPhone, h.msg.last(userID).Text)
	})
}

func TestVerifyMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("still not a member", func(t *testing.T) {
		h := newHarness(t)
		h.msg.members[userID] = MemberKicked
		h.e.Callback(ctx, callbackEvent(userID, CallbackVerifyMembership))
		assert.Equal(t, txtJoinChannelAgain, h.msg.last(userID).Text)
	})

	t.Run("member without phone is asked for it", func(t *testing.T) {
		h := newHarness(t)
		h.flags.SetPhoneRequired(true)
		h.users.add(300, "")
		h.msg.members[300] = MemberRestricted

		h.e.Callback(ctx, callbackEvent(300, CallbackVerifyMembership))

		assert.Equal(t, []string{txtMembershipOK, txtSendContactAfterOK}, h.msg.texts(300))
	})
}

func TestAdminManagement(t *testing.T) {
	ctx := context.Background()

	t.Run("add by phone notifies the new admin", func(t *testing.T) {
		h := newHarness(t)
		h.panel(t)
		h.e.Callback(ctx, callbackEvent(adminID, "panel:settings"))
		h.e.Callback(ctx, callbackEvent(adminID, "settings:manage"))
		require.Equal(t, StateAddAdminPhone, h.e.Callback(ctx, callbackEvent(adminID, "manage:add")))

		state := h.e.Message(ctx, textEvent(adminID, "+98 912 111 1111"))

		assert.Equal(t, StateManageAdmins, state)
		ok, _ := h.admins.IsAdmin(ctx, userID)
		assert.True(t, ok)
		assert.Equal(t, adminStatusNotice(true, "9121111111"), h.msg.last(userID).Text)
	})

	t.Run("unknown phone keeps asking", func(t *testing.T) {
		h := newHarness(t)
		h.panel(t)
		h.e.Callback(ctx, callbackEvent(adminID, "panel:settings"))
		h.e.Callback(ctx, callbackEvent(adminID, "settings:manage"))
		h.e.Callback(ctx, callbackEvent(adminID, "manage:add"))

		assert.Equal(t, StateAddAdminPhone, h.e.Message(ctx, textEvent(adminID, "9129999999")))
		assert.Equal(t, txtAdminNoUser, h.msg.last(adminID).Text)
	})

	t.Run("bootstrap admin cannot be removed", func(t *testing.T) {
		h := newHarness(t)
		h.admins.stored[userID] = true
		h.panel(t)
		h.e.Callback(ctx, callbackEvent(adminID, "panel:settings"))
		h.e.Callback(ctx, callbackEvent(adminID, "settings:manage"))
		require.Equal(t, StateRemoveAdmin, h.e.Callback(ctx, callbackEvent(adminID, "manage:remove")))

		state := h.e.Callback(ctx, callbackEvent(adminID, "remove:100"))
		assert.Equal(t, StateRemoveAdmin, state)
		assert.Equal(t, answer{Text: txtCannotRemove, Alert: true}, h.msg.lastAnswer())

		state = h.e.Callback(ctx, callbackEvent(adminID, "remove:200"))
		assert.Equal(t, StateManageAdmins, state)
		ok, _ := h.admins.IsAdmin(ctx, userID)
		assert.False(t, ok)
		assert.Equal(t, adminStatusNotice(false, "9121111111"), h.msg.last(userID).Text)
	})
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "+989123456789", want: "9123456789"},
		{in: "0912 345 6789", want: "9123456789"},
		{in: "9123456789", want: "9123456789"},
		{in: "912345678", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
