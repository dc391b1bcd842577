package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/set-night/seyedbot/internal/domain"
)

// Dispatcher fans a text message out to a filtered set of users.
type Dispatcher struct {
	users       UserStore
	msg         Messenger
	rec         Recorder
	concurrency int
	sendTimeout time.Duration
}

func NewDispatcher(users UserStore, msg Messenger, rec Recorder, concurrency int, sendTimeout time.Duration) *Dispatcher {
	if rec == nil {
		rec = nopRecorder{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{users: users, msg: msg, rec: rec, concurrency: concurrency, sendTimeout: sendTimeout}
}

// Broadcast sends text once to every user matching filter. A failed delivery
// is counted and logged and never aborts the others. ErrNoRecipients is
// returned when the filter matches nobody.
func (d *Dispatcher) Broadcast(ctx context.Context, filter domain.BroadcastFilter, text string) (domain.BroadcastResult, error) {
	ids, err := d.users.Recipients(ctx, filter)
	if err != nil {
		return domain.BroadcastResult{}, fmt.Errorf("list recipients: %w", err)
	}
	if len(ids) == 0 {
		return domain.BroadcastResult{}, domain.ErrNoRecipients
	}

	runID := uuid.NewString()
	log := slog.With("broadcast_id", runID, "filter", filter)
	log.Info("broadcast started", "recipients", len(ids))

	var sent, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := d.send(ctx, id, text); err != nil {
				failed.Add(1)
				d.rec.BroadcastDelivered(false)
				log.Warn("broadcast delivery failed", "error", &domain.RecipientDeliveryError{UserID: id, Err: err})
				return nil
			}
			sent.Add(1)
			d.rec.BroadcastDelivered(true)
			return nil
		})
	}
	_ = g.Wait()

	res := domain.BroadcastResult{ID: runID, Targeted: len(ids), Sent: int(sent.Load()), Failed: int(failed.Load())}
	log.Info("broadcast finished", "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func (d *Dispatcher) send(ctx context.Context, userID int64, text string) error {
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	return d.msg.SendText(ctx, userID, text, nil)
}
