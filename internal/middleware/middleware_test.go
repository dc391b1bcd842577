package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/seyedbot/internal/workflow"
)

type stubLimiter struct {
	allow bool
	err   error
}

func (s stubLimiter) Allow(context.Context, int64) (bool, error) {
	return s.allow, s.err
}

type counter struct{ n int }

func (c *counter) IncRateLimited() { c.n++ }

// apiStub records Bot API method calls.
type apiStub struct {
	mu    sync.Mutex
	calls []string
}

func (a *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	a.mu.Lock()
	a.calls = append(a.calls, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
	a.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
}

func newTestBot(t *testing.T) (*bot.Bot, *apiStub) {
	t.Helper()
	stub := &apiStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test", bot.WithSkipGetMe(), bot.WithServerURL(srv.URL))
	require.NoError(t, err)
	return b, stub
}

func privateMessage(chatID int64) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   1,
		From: &models.User{ID: chatID},
		Chat: models.Chat{ID: chatID, Type: models.ChatTypePrivate},
		Text: "hello",
	}}
}

func TestRateLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed", func(t *testing.T) {
		called := false
		h := RateLimit(stubLimiter{allow: true}, nil)(func(context.Context, *bot.Bot, *models.Update) { called = true })
		h(ctx, nil, privateMessage(1))
		assert.True(t, called)
	})

	t.Run("storage error lets message through", func(t *testing.T) {
		called := false
		h := RateLimit(stubLimiter{err: errors.New("db down")}, nil)(func(context.Context, *bot.Bot, *models.Update) { called = true })
		h(ctx, nil, privateMessage(1))
		assert.True(t, called)
	})

	t.Run("callbacks skip the limiter", func(t *testing.T) {
		called := false
		h := RateLimit(stubLimiter{}, nil)(func(context.Context, *bot.Bot, *models.Update) { called = true })
		h(ctx, nil, &models.Update{CallbackQuery: &models.CallbackQuery{ID: "cb"}})
		assert.True(t, called)
	})

	t.Run("limited", func(t *testing.T) {
		b, stub := newTestBot(t)
		c := &counter{}
		called := false
		h := RateLimit(stubLimiter{allow: false}, c)(func(context.Context, *bot.Bot, *models.Update) { called = true })
		h(ctx, b, privateMessage(1))

		assert.False(t, called)
		assert.Equal(t, 1, c.n)
		assert.Contains(t, stub.calls, "sendMessage")
	})
}

func TestEventLoader(t *testing.T) {
	ctx := context.Background()

	var got workflow.Event
	var loaded bool
	h := EventLoader()(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		got, loaded = GetEvent(ctx)
	})

	h(ctx, nil, privateMessage(42))
	require.True(t, loaded)
	assert.Equal(t, workflow.EventText, got.Kind)
	assert.Equal(t, int64(42), got.UserID)
	assert.True(t, got.Private)

	loaded = false
	h(ctx, nil, &models.Update{})
	assert.False(t, loaded, "empty updates are dropped")
}

type reporter struct{ errs []error }

func (r *reporter) LogError(_ context.Context, err error, _ string) {
	r.errs = append(r.errs, err)
}

func TestRecover(t *testing.T) {
	rep := &reporter{}
	h := Recover(rep)(func(context.Context, *bot.Bot, *models.Update) { panic("boom") })

	assert.NotPanics(t, func() { h(context.Background(), nil, &models.Update{ID: 9}) })
	require.Len(t, rep.errs, 1)
	assert.Contains(t, rep.errs[0].Error(), "boom")
}

type observer struct{ types []string }

func (o *observer) ObserveUpdate(updateType string, _ time.Duration) {
	o.types = append(o.types, updateType)
}

func TestLogging(t *testing.T) {
	obs := &observer{}
	h := Logging(obs)(func(context.Context, *bot.Bot, *models.Update) {})

	h(context.Background(), nil, privateMessage(1))
	h(context.Background(), nil, &models.Update{CallbackQuery: &models.CallbackQuery{ID: "cb", From: models.User{ID: 1}}})
	h(context.Background(), nil, &models.Update{})

	assert.Equal(t, []string{"message", "callback_query", "unknown"}, obs.types)
}
