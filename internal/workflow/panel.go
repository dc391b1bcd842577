package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/set-night/seyedbot/internal/domain"
)

func (e *Engine) registerPanel() {
	r := e.router

	r.On(StateMain, OnCallback("panel:settings"), e.showSettings)
	r.On(StateMain, OnCallback("panel:stats"), e.showStats)
	r.On(StateMain, OnCallback("panel:broadcast"), e.showBroadcastMenu)
	r.On(StateMain, OnCallback("panel:back"), e.exitPanel)
	for _, kind := range domain.ContentKinds {
		r.On(StateMain, OnCallback("panel:"+string(kind)), e.openContentMenu(kind))
	}

	r.On(StateSettings, OnCallback("settings:manage"), e.showManageAdmins)
	r.On(StateSettings, OnCallback("settings:toggle_phone"), e.togglePhone)
	r.On(StateSettings, OnCallback("settings:back"), e.showPanel)

	r.On(StateManageAdmins, OnCallback("manage:add"), e.askAdminPhone)
	r.On(StateManageAdmins, OnCallback("manage:remove"), e.showRemovableAdmins)
	r.On(StateManageAdmins, OnCallback("manage:list"), e.listAdmins)
	r.On(StateManageAdmins, OnCallback("manage:back"), e.showSettings)

	r.On(StateAddAdminPhone, OnText(), e.addAdmin)
	r.On(StateAddAdminPhone, OnCallback("add:cancel"), e.showManageAdmins)

	r.On(StateRemoveAdmin, OnCallback("remove:back"), e.showManageAdmins)
	r.On(StateRemoveAdmin, OnCallbackPrefix("remove:"), e.removeAdmin)

	r.On(StateBroadcastMenu, OnCallback("broadcast:back"), e.showPanel)
	r.On(StateBroadcastMenu, OnCallbackPrefix("broadcast:"), e.pickBroadcastFilter)

	r.On(StateBroadcastMessage, OnCallback("broadcast:cancel"), e.cancelBroadcast)
	r.On(StateBroadcastMessage, OnText(), e.sendBroadcast)
	r.On(StateBroadcastMessage, OnMedia(), func(ctx context.Context, s *Session, ev Event) State {
		e.send(ctx, ev.ChatID, txtBroadcastTextOnly, broadcastCancelMarkup())
		return s.State
	})
}

func (e *Engine) enterPanel(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.admin, s, ev) {
		return s.State
	}
	s.Clear()
	e.send(ctx, ev.ChatID, txtPanelWelcome, panelMarkup())
	return StateMain
}

func panelMarkup() *Markup {
	return Inline(
		Row(CallbackButton("تنظیمات ربات ⚙️", "panel:settings")),
		Row(CallbackButton("آمار گیری 📊", "panel:stats")),
		Row(CallbackButton("مدیریت وبینارها 🎥", "panel:"+string(domain.KindWebinar))),
		Row(CallbackButton("مدیریت دراپ لرنینگ 📚", "panel:"+string(domain.KindLesson))),
		Row(CallbackButton("مدیریت کیس استادی 📋", "panel:"+string(domain.KindCaseStudy))),
		Row(CallbackButton("پیام همگانی 📢", "panel:broadcast")),
		Row(CallbackButton("بازگشت به ربات ⬅️", "panel:back")),
	)
}

func (e *Engine) showPanel(ctx context.Context, s *Session, ev Event) State {
	s.DiscardDraft()
	s.BroadcastFilter = ""
	e.respond(ctx, s, ev, txtPanelWelcome, panelMarkup())
	return StateMain
}

func (e *Engine) exitPanel(ctx context.Context, s *Session, ev Event) State {
	s.Clear()
	e.respond(ctx, s, ev, txtPanelExit, nil)
	e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtMainMenu)
	return StateIdle
}

func (e *Engine) showStats(ctx context.Context, s *Session, ev Event) State {
	stats, err := e.users.Stats(ctx)
	if err != nil {
		e.storageError(ctx, s, ev, "load stats", err)
		return s.State
	}
	e.respond(ctx, s, ev, statsText(stats), panelMarkup())
	return StateMain
}

func settingsMarkup(phoneRequired bool) *Markup {
	toggle := "اجبار شماره موبایل: خاموش ❌"
	if phoneRequired {
		toggle = "اجبار شماره موبایل: روشن ✅"
	}
	return Inline(
		Row(CallbackButton("مدیریت ادمین‌ها 🧑‍💼", "settings:manage")),
		Row(CallbackButton(toggle, "settings:toggle_phone")),
		Row(CallbackButton(txtBackButton, "settings:back")),
	)
}

func (e *Engine) showSettings(ctx context.Context, s *Session, ev Event) State {
	e.respond(ctx, s, ev, txtSettings, settingsMarkup(e.flags.PhoneRequired()))
	return StateSettings
}

func (e *Engine) togglePhone(ctx context.Context, s *Session, ev Event) State {
	required := !e.flags.PhoneRequired()
	e.flags.SetPhoneRequired(required)
	slog.Info("phone requirement changed", "admin_id", ev.UserID, "required", required)

	status := txtPhoneOptional
	if required {
		status = txtPhoneForced
	}
	e.respond(ctx, s, ev, status+"\n\nیکی از گزینه‌ها را انتخاب کنید:", settingsMarkup(required))
	return StateSettings
}

func manageMarkup() *Markup {
	return Inline(
		Row(CallbackButton("افزودن ادمین ➕", "manage:add"), CallbackButton("حذف ادمین ➖", "manage:remove")),
		Row(CallbackButton("فهرست ادمین‌ها 📋", "manage:list")),
		Row(CallbackButton(txtBackButton, "manage:back")),
	)
}

func (e *Engine) showManageAdmins(ctx context.Context, s *Session, ev Event) State {
	e.respond(ctx, s, ev, txtManageAdmins, manageMarkup())
	return StateManageAdmins
}

func (e *Engine) askAdminPhone(ctx context.Context, s *Session, ev Event) State {
	e.respond(ctx, s, ev, txtAskAdminPhone, Inline(Row(CallbackButton(txtCancelButton, "add:cancel"))))
	return StateAddAdminPhone
}

func (e *Engine) addAdmin(ctx context.Context, s *Session, ev Event) State {
	phone, err := NormalizePhone(ev.Text)
	if err != nil {
		e.send(ctx, ev.ChatID, txtAdminBadPhone, nil)
		return s.State
	}
	u, err := e.users.FindByPhone(ctx, phone)
	if errors.Is(err, domain.ErrUserNotFound) {
		e.send(ctx, ev.ChatID, txtAdminNoUser, nil)
		return s.State
	}
	if err != nil {
		e.storageError(ctx, s, ev, "find user by phone", err)
		return s.State
	}

	added, err := e.admins.Add(ctx, u.TelegramID)
	if err != nil {
		e.storageError(ctx, s, ev, "add admin", err)
		return s.State
	}
	if !added {
		e.send(ctx, ev.ChatID, txtAlreadyAdmin, manageMarkup())
		return StateManageAdmins
	}

	slog.Info("admin granted", "admin_id", ev.UserID, "target_id", u.TelegramID)
	e.audit.AdminChanged(ctx, ev.UserID, *u, true)
	e.send(ctx, u.TelegramID, adminStatusNotice(true, u.PhoneNumber), nil)
	e.send(ctx, ev.ChatID, adminAddedText(u), manageMarkup())
	return StateManageAdmins
}

func (e *Engine) showRemovableAdmins(ctx context.Context, s *Session, ev Event) State {
	admins, err := e.admins.Removable(ctx)
	if err != nil {
		e.storageError(ctx, s, ev, "list admins", err)
		return s.State
	}
	if len(admins) == 0 {
		e.respond(ctx, s, ev, txtNoRemovable, manageMarkup())
		return StateManageAdmins
	}

	rows := make([][]Button, 0, len(admins)+1)
	for _, a := range admins {
		name := a.FullName()
		if name == "" {
			name = "بدون نام"
		}
		label := truncateLabel(a.PhoneNumber + " | " + name)
		rows = append(rows, Row(CallbackButton(label, "remove:"+strconv.FormatInt(a.TelegramID, 10))))
	}
	rows = append(rows, Row(CallbackButton(txtBackButton, "remove:back")))
	e.respond(ctx, s, ev, txtPickRemove, Inline(rows...))
	return StateRemoveAdmin
}

func (e *Engine) removeAdmin(ctx context.Context, s *Session, ev Event) State {
	id, err := parseID(ev.Data, "remove:")
	if err != nil {
		e.invalid(ctx, s, ev)
		return s.State
	}

	removed, err := e.admins.Remove(ctx, id)
	switch {
	case errors.Is(err, domain.ErrBootstrapAdmin):
		e.alert(ctx, s, ev, txtCannotRemove)
		return s.State
	case err != nil:
		e.storageError(ctx, s, ev, "remove admin", err)
		return s.State
	case !removed:
		e.alert(ctx, s, ev, txtNotAdmin)
		return e.showRemovableAdmins(ctx, s, ev)
	}

	slog.Info("admin revoked", "admin_id", ev.UserID, "target_id", id)
	target := domain.User{TelegramID: id}
	if u, err := e.users.Get(ctx, id); err == nil {
		target = *u
	}
	e.audit.AdminChanged(ctx, ev.UserID, target, false)
	e.send(ctx, id, adminStatusNotice(false, target.PhoneNumber), nil)
	e.respond(ctx, s, ev, txtAdminRemoved+"\n\n"+txtManageAdmins, manageMarkup())
	return StateManageAdmins
}

func (e *Engine) listAdmins(ctx context.Context, s *Session, ev Event) State {
	admins, err := e.admins.List(ctx)
	if err != nil {
		e.storageError(ctx, s, ev, "list admins", err)
		return s.State
	}
	e.respond(ctx, s, ev, adminListText(admins), manageMarkup())
	return StateManageAdmins
}

func broadcastMarkup() *Markup {
	rows := make([][]Button, 0, 4)
	for _, f := range []domain.BroadcastFilter{domain.BroadcastAll, domain.BroadcastWithPhone, domain.BroadcastLacksPhone} {
		rows = append(rows, Row(CallbackButton("ارسال به "+filterLabels[f], "broadcast:"+string(f))))
	}
	rows = append(rows, Row(CallbackButton(txtBackButton, "broadcast:back")))
	return Inline(rows...)
}

func broadcastCancelMarkup() *Markup {
	return Inline(Row(CallbackButton("لغو ارسال 🔙", "broadcast:cancel")))
}

func (e *Engine) showBroadcastMenu(ctx context.Context, s *Session, ev Event) State {
	e.respond(ctx, s, ev, txtBroadcastPick, broadcastMarkup())
	return StateBroadcastMenu
}

func (e *Engine) pickBroadcastFilter(ctx context.Context, s *Session, ev Event) State {
	filter := domain.BroadcastFilter(strings.TrimPrefix(ev.Data, "broadcast:"))
	if !filter.Valid() {
		e.invalid(ctx, s, ev)
		return s.State
	}
	s.BroadcastFilter = filter
	e.respond(ctx, s, ev, broadcastAskText(filter), broadcastCancelMarkup())
	return StateBroadcastMessage
}

func (e *Engine) cancelBroadcast(ctx context.Context, s *Session, ev Event) State {
	s.BroadcastFilter = ""
	e.respond(ctx, s, ev, txtBroadcastCancelled+"\n\n"+txtPanelWelcome, panelMarkup())
	return StateMain
}

// sendBroadcast hands the fan-out to deferred work so the sender's session
// is not held while messages go out.
func (e *Engine) sendBroadcast(ctx context.Context, s *Session, ev Event) State {
	filter := s.BroadcastFilter
	if !filter.Valid() {
		e.send(ctx, ev.ChatID, "حالت ارسال نامعتبر است.", panelMarkup())
		return StateMain
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		e.send(ctx, ev.ChatID, txtBroadcastTextOnly, broadcastCancelMarkup())
		return s.State
	}
	s.BroadcastFilter = ""

	adminID, chatID := ev.UserID, ev.ChatID
	s.Defer(func(ctx context.Context) {
		res, err := e.dispatcher.Broadcast(ctx, filter, text)
		switch {
		case errors.Is(err, domain.ErrNoRecipients):
			e.send(ctx, chatID, broadcastEmptyText(filter), panelMarkup())
			return
		case err != nil:
			slog.Error("broadcast failed", "admin_id", adminID, "error", err)
			e.send(ctx, chatID, txtGenericError, panelMarkup())
			return
		}
		e.audit.Broadcast(ctx, adminID, filter, res)
		e.send(ctx, chatID, broadcastDoneText(filter, res), panelMarkup())
	})
	return StateMain
}

func (e *Engine) openContentMenu(kind domain.ContentKind) Handler {
	return func(ctx context.Context, s *Session, ev Event) State {
		return (&contentFlow{e: e, kind: kind}).renderMenu(ctx, s, ev, "")
	}
}
