package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/set-night/seyedbot/internal/domain"
)

const (
	cbConsultationPayment = "consultation:payment"
	cbConsultationReceipt = "consultation:send_receipt"
	cbConsultationApprove = "consultation:approve:"
	cbConsultationReject  = "consultation:reject:"
)

type PaymentInfo struct {
	Amount   decimal.Decimal
	Currency string
	Card     string
	Pitch    string
}

// Bridge moves consultation requests between requesters and admins. A
// request is decided exactly once.
type Bridge struct {
	store  ConsultationStore
	admins AdminRegistry
	msg    Messenger
	pay    PaymentInfo
	rec    Recorder
	audit  Auditor

	concurrency int
}

// NewBridge builds a Bridge. concurrency bounds the review cards in flight.
func NewBridge(store ConsultationStore, admins AdminRegistry, msg Messenger, pay PaymentInfo, rec Recorder, audit Auditor, concurrency int) *Bridge {
	if rec == nil {
		rec = nopRecorder{}
	}
	if audit == nil {
		audit = nopAuditor{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Bridge{store: store, admins: admins, msg: msg, pay: pay, rec: rec, audit: audit, concurrency: concurrency}
}

func (b *Bridge) Pitch() (string, *Markup) {
	return b.pay.Pitch, Inline(Row(CallbackButton(txtConsultationPay, cbConsultationPayment)))
}

func (b *Bridge) PaymentInstructions() (string, *Markup) {
	text := paymentText(b.pay.Amount.String(), b.pay.Currency, b.pay.Card)
	return text, Inline(Row(CallbackButton(txtSendReceiptButton, cbConsultationReceipt)))
}

// Submit stores a pending request for the receipt.
func (b *Bridge) Submit(ctx context.Context, p domain.Profile, receipt domain.Media) (*domain.ConsultationRequest, error) {
	req, err := b.store.Create(ctx, p.TelegramID, receipt, b.pay.Amount)
	if err != nil {
		return nil, fmt.Errorf("create consultation request: %w", err)
	}
	b.audit.ConsultationSubmitted(ctx, req, p)
	return req, nil
}

// NotifyAdmins sends a review card for req to every admin. Delivery is best
// effort; the number of admins reached is returned.
func (b *Bridge) NotifyAdmins(ctx context.Context, req *domain.ConsultationRequest, p domain.Profile) int {
	ids, err := b.admins.IDs(ctx)
	if err != nil {
		slog.Error("failed to list admins for review", "request_id", req.ID, "error", err)
		return 0
	}

	receipt := domain.Media{FileRef: req.ReceiptRef, Kind: req.ReceiptKind}
	caption := reviewCardText(req, p, b.pay.Currency)
	markup := reviewMarkup(req.ID)

	var reached atomic.Int64
	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for _, adminID := range ids {
		g.Go(func() error {
			if err := b.msg.SendMedia(ctx, adminID, receipt, caption, markup); err != nil {
				slog.Warn("failed to send review card", "admin_id", adminID, "request_id", req.ID, "error", err)
				return nil
			}
			reached.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(reached.Load())
}

// Decide records the admin's decision. Deciding a request twice returns an
// AlreadyProcessedError and changes nothing.
func (b *Bridge) Decide(ctx context.Context, requestID int64, status domain.ConsultationStatus, reason *string, adminID int64) (*domain.ConsultationRequest, error) {
	req, err := b.store.Decide(ctx, requestID, status, reason, adminID)
	if err != nil {
		return nil, err
	}
	b.rec.ConsultationDecided(status)
	b.audit.ConsultationDecided(ctx, req, adminID)

	var notice string
	switch status {
	case domain.ConsultationApproved:
		notice = txtRequestApproved
	case domain.ConsultationRejected:
		r := ""
		if reason != nil {
			r = *reason
		}
		notice = rejectedNotice(r)
	}
	if err := b.msg.SendText(ctx, req.UserID, notice, nil); err != nil {
		slog.Warn("failed to notify requester", "request_id", req.ID, "user_id", req.UserID, "error", err)
	}
	return req, nil
}

// Pending loads a request and fails with AlreadyProcessedError if it has been decided.
func (b *Bridge) Pending(ctx context.Context, requestID int64) (*domain.ConsultationRequest, error) {
	req, err := b.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Pending() {
		return nil, &domain.AlreadyProcessedError{RequestID: req.ID, Status: req.Status}
	}
	return req, nil
}

// Relay copies the approver's message verbatim to the requester.
func (b *Bridge) Relay(ctx context.Context, capture relayCapture, fromChat int64, messageID int) error {
	if err := b.msg.CopyMessage(ctx, capture.RequesterID, fromChat, messageID); err != nil {
		return fmt.Errorf("relay message for request %d: %w", capture.RequestID, err)
	}
	return nil
}

func reviewMarkup(requestID int64) *Markup {
	id := strconv.FormatInt(requestID, 10)
	return Inline(Row(
		CallbackButton(txtApproveButton, cbConsultationApprove+id),
		CallbackButton(txtRejectButton, cbConsultationReject+id),
	))
}

// decisionNotice converts a decide failure into the admin-facing reply.
func decisionNotice(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return txtAlreadyProcessed
	case errors.Is(err, domain.ErrRequestNotFound):
		return txtRequestMissing
	}
	return txtGenericError
}
