package handler

import (
	"context"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"

	"github.com/set-night/seyedbot/internal/middleware"
	"github.com/set-night/seyedbot/internal/workflow"
)

type recordingEngine struct {
	calls []string
	last  workflow.Event
}

func (r *recordingEngine) record(name string, ev workflow.Event) workflow.State {
	r.calls = append(r.calls, name)
	r.last = ev
	return workflow.StateMain
}

func (r *recordingEngine) Start(_ context.Context, ev workflow.Event) workflow.State {
	return r.record("start", ev)
}

func (r *recordingEngine) Panel(_ context.Context, ev workflow.Event) workflow.State {
	return r.record("panel", ev)
}

func (r *recordingEngine) Cancel(_ context.Context, ev workflow.Event) workflow.State {
	return r.record("cancel", ev)
}

func (r *recordingEngine) SendPhone(_ context.Context, ev workflow.Event) workflow.State {
	return r.record("sendphone", ev)
}

func (r *recordingEngine) Callback(_ context.Context, ev workflow.Event) workflow.State {
	return r.record("callback", ev)
}

func (r *recordingEngine) Message(_ context.Context, ev workflow.Event) workflow.State {
	return r.record("message", ev)
}

func TestForward(t *testing.T) {
	eng := &recordingEngine{}
	h := New(Deps{Engine: eng})

	t.Run("without event", func(t *testing.T) {
		h.forward("start", eng.Start)(context.Background(), nil, &models.Update{})
		assert.Empty(t, eng.calls)
	})

	t.Run("with event", func(t *testing.T) {
		ev := workflow.Event{Kind: workflow.EventCommand, UserID: 7, Command: "/start"}
		ctx := middleware.WithEvent(context.Background(), ev)
		h.forward("start", eng.Start)(ctx, nil, &models.Update{})
		assert.Equal(t, []string{"start"}, eng.calls)
		assert.Equal(t, ev, eng.last)
	})
}

func TestDefault(t *testing.T) {
	eng := &recordingEngine{}
	h := New(Deps{Engine: eng})
	ev := workflow.Event{Kind: workflow.EventText, UserID: 7, Text: "hi"}
	ctx := middleware.WithEvent(context.Background(), ev)

	h.Default(ctx, nil, &models.Update{})
	assert.Empty(t, eng.calls, "updates without a message are ignored")

	h.Default(ctx, nil, &models.Update{Message: &models.Message{Text: "hi"}})
	assert.Equal(t, []string{"message"}, eng.calls)
}
