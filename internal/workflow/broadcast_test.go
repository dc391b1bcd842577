package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/set-night/seyedbot/internal/domain"
)

func TestDispatcher_Broadcast(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("failures are isolated", func(t *testing.T) {
		users := newFakeUsers()
		msg := newFakeMessenger()
		for id := int64(1); id <= 5; id++ {
			users.add(id, "912000000"+itoa(id))
		}
		msg.failFor[2] = true
		msg.failFor[4] = true

		res, err := NewDispatcher(users, msg, nil, 3, time.Second).Broadcast(ctx, domain.BroadcastAll, "hello")

		require.NoError(t, err)
		_, err = uuid.Parse(res.ID)
		assert.NoError(t, err, "result carries the run id")
		res.ID = ""
		assert.Equal(t, domain.BroadcastResult{Targeted: 5, Sent: 3, Failed: 2}, res)
		for _, id := range []int64{1, 3, 5} {
			assert.Equal(t, []string{"hello"}, msg.texts(id))
		}
	})

	t.Run("filter selects recipients", func(t *testing.T) {
		users := newFakeUsers()
		msg := newFakeMessenger()
		users.add(1, "9120000001")
		users.add(2, "")
		users.add(3, "")

		res, err := NewDispatcher(users, msg, nil, 2, 0).Broadcast(ctx, domain.BroadcastLacksPhone, "register please")

		require.NoError(t, err)
		assert.Equal(t, 2, res.Sent)
		assert.Empty(t, msg.to(1))
	})

	t.Run("no recipients", func(t *testing.T) {
		users := newFakeUsers()
		users.add(1, "")
		msg := newFakeMessenger()

		res, err := NewDispatcher(users, msg, nil, 2, 0).Broadcast(ctx, domain.BroadcastWithPhone, "hi")

		assert.ErrorIs(t, err, domain.ErrNoRecipients)
		assert.Zero(t, res)
		assert.Empty(t, msg.sent)
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		users := newFakeUsers()
		msg := newFakeMessenger()
		msg.delay = 5 * time.Millisecond
		for id := int64(1); id <= 20; id++ {
			users.add(id, "")
		}

		res, err := NewDispatcher(users, msg, nil, 4, 0).Broadcast(ctx, domain.BroadcastAll, "x")

		require.NoError(t, err)
		assert.Equal(t, 20, res.Sent)
		assert.LessOrEqual(t, msg.peak, 4)
	})
}

func TestEngine_BroadcastFromPanel(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	h := newHarness(t)
	h.users.add(300, "")
	h.msg.failFor[300] = true
	h.panel(t)

	require.Equal(t, StateBroadcastMenu, h.e.Callback(ctx, callbackEvent(adminID, "panel:broadcast")))
	require.Equal(t, StateBroadcastMessage, h.e.Callback(ctx, callbackEvent(adminID, "broadcast:with_phone")))
	require.Equal(t, StateMain, h.e.Message(ctx, textEvent(adminID, "webinar tonight")))
	h.e.Wait()

	assert.Equal(t, []string{"webinar tonight"}, h.msg.texts(userID))
	assert.Empty(t, h.msg.texts(300))
	assert.Equal(t, broadcastDoneText(domain.BroadcastWithPhone, domain.BroadcastResult{Targeted: 2, Sent: 2}), h.msg.last(adminID).Text)
}

func TestEngine_BroadcastDoesNotHoldTheUpdate(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	h := newHarness(t)
	release := make(chan struct{})
	h.msg.hold[userID] = release
	h.panel(t)
	h.e.Callback(ctx, callbackEvent(adminID, "panel:broadcast"))
	h.e.Callback(ctx, callbackEvent(adminID, "broadcast:all"))

	done := make(chan State, 1)
	go func() { done <- h.e.Message(ctx, textEvent(adminID, "tonight")) }()

	select {
	case st := <-done:
		assert.Equal(t, StateMain, st)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("message handler waited for the broadcast")
	}
	assert.Empty(t, h.msg.texts(userID))
	assert.Equal(t, StateMain, h.e.State(adminID))

	close(release)
	h.e.Wait()
	assert.Equal(t, []string{"tonight"}, h.msg.texts(userID))
	assert.Contains(t, h.msg.last(adminID).Text, "موفق: 2")
}

func TestEngine_BroadcastCancel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.panel(t)
	h.e.Callback(ctx, callbackEvent(adminID, "panel:broadcast"))
	h.e.Callback(ctx, callbackEvent(adminID, "broadcast:all"))

	assert.Equal(t, StateMain, h.e.Callback(ctx, callbackEvent(adminID, "broadcast:cancel")))
	assert.Empty(t, h.msg.texts(userID))
}
