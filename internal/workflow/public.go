package workflow

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"slices"
	"strings"

	"github.com/set-night/seyedbot/internal/domain"
)

func (e *Engine) publicMessage(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.entry, s, ev) {
		return s.State
	}
	if ev.Kind == EventMedia {
		if s.State == StateAwaitReceipt {
			return e.submitReceipt(ctx, s, ev)
		}
		e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtPickFromMenu)
		return s.State
	}
	return e.menuText(ctx, s, ev)
}

func servicesMarkup() *Markup {
	rows := chunkLabels(serviceLabels, 2)
	rows = append(rows, Row(LabelButton(LabelBack)))
	return Reply(rows...)
}

func (e *Engine) menuText(ctx context.Context, s *Session, ev Event) State {
	text := strings.TrimSpace(ev.Text)
	if kind, ok := kindLabels[text]; ok {
		return e.openCatalogue(ctx, s, ev, kind)
	}

	switch {
	case text == LabelConsultation:
		pitch, markup := e.bridge.Pitch()
		e.send(ctx, ev.ChatID, pitch, markup)
		return StateIdle
	case text == LabelServices:
		e.send(ctx, ev.ChatID, txtServicesMenu, servicesMarkup())
		return StateServices
	case text == LabelBack:
		s.ClearSelections()
		e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtBackToMain)
		return StateIdle
	case slices.Contains(serviceLabels, text):
		e.send(ctx, ev.ChatID, serviceReply(text), servicesMarkup())
		return StateServices
	}

	if kind, ok := s.State.Browsing(); ok {
		return e.pickFromCatalogue(ctx, s, ev, kind)
	}
	if s.State == StateAwaitReceipt {
		e.send(ctx, ev.ChatID, txtReceiptShape, nil)
		return s.State
	}
	e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtComingSoon)
	return StateIdle
}

// openCatalogue renders the titles of kind as a reply keyboard and keeps the
// label mapping in the session.
func (e *Engine) openCatalogue(ctx context.Context, s *Session, ev Event, kind domain.ContentKind) State {
	entries, sel, err := e.catalogue.BuildMenu(ctx, kind)
	if err != nil {
		e.storageError(ctx, s, ev, "build catalogue", err)
		return s.State
	}
	s.ClearSelections()
	if len(entries) == 0 {
		e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtCatalogueNone)
		return StateIdle
	}
	s.SetSelection(sel)

	labels := make([]string, 0, len(entries))
	for _, en := range entries {
		labels = append(labels, en.Label)
	}
	rows := chunkLabels(labels, 1)
	rows = append(rows, Row(LabelButton(LabelBack)))
	e.send(ctx, ev.ChatID, txtCatalogueMenu, Reply(rows...))
	return BrowseState(kind)
}

func (e *Engine) pickFromCatalogue(ctx context.Context, s *Session, ev Event, kind domain.ContentKind) State {
	rec, known, err := e.catalogue.Resolve(ctx, s.Selection(kind), strings.TrimSpace(ev.Text))
	var stale *domain.StaleSelectionError
	switch {
	case !known:
		e.send(ctx, ev.ChatID, txtPickFromMenu, nil)
		return s.State
	case errors.As(err, &stale):
		e.send(ctx, ev.ChatID, txtNoLongerThere, nil)
		return s.State
	case err != nil:
		e.storageError(ctx, s, ev, "resolve selection", err)
		return s.State
	}
	e.deliver(ctx, ev, rec)
	return s.State
}

// deliver sends a record to the user: cover (or title), description and
// then every item in order.
func (e *Engine) deliver(ctx context.Context, ev Event, rec *domain.ContentRecord) {
	items, err := e.content.Items(ctx, rec.ID)
	if err != nil {
		slog.Error("failed to list items", "record_id", rec.ID, "error", err)
		e.send(ctx, ev.ChatID, txtGenericError, nil)
		return
	}

	if rec.CoverRef != nil {
		e.sendMedia(ctx, ev.ChatID, domain.Media{FileRef: *rec.CoverRef, Kind: domain.FilePhoto}, html.EscapeString(rec.Title), nil)
	} else {
		e.send(ctx, ev.ChatID, html.EscapeString(rec.Title), nil)
	}
	if rec.Description != "" {
		e.send(ctx, ev.ChatID, html.EscapeString(rec.Description), nil)
	}
	for _, it := range items {
		e.sendMedia(ctx, ev.ChatID, it.Media(), "", nil)
	}

	if err := e.content.RecordView(ctx, rec.ID, ev.UserID); err != nil {
		slog.Warn("failed to record view", "record_id", rec.ID, "user_id", ev.UserID, "error", err)
	}
}

func (e *Engine) consultationCallback(ctx context.Context, s *Session, ev Event) State {
	switch {
	case ev.Data == cbConsultationPayment:
		if !e.allow(ctx, e.entry, s, ev) {
			return s.State
		}
		text, markup := e.bridge.PaymentInstructions()
		e.send(ctx, ev.ChatID, text, markup)
		return s.State
	case ev.Data == cbConsultationReceipt:
		if !e.allow(ctx, e.entry, s, ev) {
			return s.State
		}
		e.send(ctx, ev.ChatID, txtSendReceipt, nil)
		return StateAwaitReceipt
	case strings.HasPrefix(ev.Data, cbConsultationApprove):
		return e.approve(ctx, s, ev)
	case strings.HasPrefix(ev.Data, cbConsultationReject):
		return e.reject(ctx, s, ev)
	}
	e.invalid(ctx, s, ev)
	return s.State
}

func (e *Engine) submitReceipt(ctx context.Context, s *Session, ev Event) State {
	m, ok := ev.Attachments.Classify()
	if !ok || (m.Kind != domain.FilePhoto && m.Kind != domain.FileDocument) {
		e.send(ctx, ev.ChatID, txtReceiptShape, nil)
		return s.State
	}
	req, err := e.bridge.Submit(ctx, ev.Profile, m)
	if err != nil {
		e.storageError(ctx, s, ev, "submit receipt", err)
		return s.State
	}
	e.sendMainMenu(ctx, ev.ChatID, ev.UserID, txtReceiptReceived)

	p := ev.Profile
	s.Defer(func(ctx context.Context) {
		reached := e.bridge.NotifyAdmins(ctx, req, p)
		slog.Info("consultation submitted", "request_id", req.ID, "user_id", p.TelegramID, "admins_reached", reached)
	})
	return StateIdle
}

func (e *Engine) approve(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.admin, s, ev) {
		return s.State
	}
	id, err := parseID(ev.Data, cbConsultationApprove)
	if err != nil {
		e.invalid(ctx, s, ev)
		return s.State
	}
	req, err := e.bridge.Decide(ctx, id, domain.ConsultationApproved, nil, ev.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyProcessed) && !errors.Is(err, domain.ErrRequestNotFound) {
			slog.Error("failed to approve consultation", "request_id", id, "error", err)
		}
		e.alert(ctx, s, ev, decisionNotice(err))
		return s.State
	}
	s.rejecting = 0
	s.relay = &relayCapture{RequestID: req.ID, RequesterID: req.UserID}
	e.toast(ctx, s, ev, txtApproveButton)
	e.send(ctx, ev.ChatID, txtAskRelay, nil)
	return s.State
}

func (e *Engine) reject(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.admin, s, ev) {
		return s.State
	}
	id, err := parseID(ev.Data, cbConsultationReject)
	if err != nil {
		e.invalid(ctx, s, ev)
		return s.State
	}
	if _, err := e.bridge.Pending(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrAlreadyProcessed) && !errors.Is(err, domain.ErrRequestNotFound) {
			slog.Error("failed to load consultation", "request_id", id, "error", err)
		}
		e.alert(ctx, s, ev, decisionNotice(err))
		return s.State
	}
	s.relay = nil
	s.rejecting = id
	e.send(ctx, ev.ChatID, txtAskReason, nil)
	return s.State
}

// captureDecision consumes the approver's next message: a rejection reason
// or a note relayed once to an approved requester.
func (e *Engine) captureDecision(ctx context.Context, s *Session, ev Event) State {
	if !e.allow(ctx, e.admin, s, ev) {
		s.relay, s.rejecting = nil, 0
		return s.State
	}

	if s.rejecting != 0 {
		reason := strings.TrimSpace(ev.Text)
		if ev.Kind != EventText || reason == "" {
			e.send(ctx, ev.ChatID, txtReasonTextOnly, nil)
			return s.State
		}
		id := s.rejecting
		s.rejecting = 0
		if _, err := e.bridge.Decide(ctx, id, domain.ConsultationRejected, &reason, ev.UserID); err != nil {
			if !errors.Is(err, domain.ErrAlreadyProcessed) && !errors.Is(err, domain.ErrRequestNotFound) {
				slog.Error("failed to reject consultation", "request_id", id, "error", err)
			}
			e.send(ctx, ev.ChatID, decisionNotice(err), nil)
			return s.State
		}
		e.send(ctx, ev.ChatID, txtRejectedAck, nil)
		return s.State
	}

	capture := *s.relay
	s.relay = nil
	if err := e.bridge.Relay(ctx, capture, ev.ChatID, ev.MessageID); err != nil {
		slog.Warn("failed to relay approval message", "error", err)
		e.send(ctx, ev.ChatID, txtGenericError, nil)
		return s.State
	}
	e.send(ctx, ev.ChatID, txtRelayDone, nil)
	return s.State
}
