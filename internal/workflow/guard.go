package workflow

import (
	"context"
	"log/slog"
)

// Guard is one precondition on an inbound event. Check returns false to stop
// the event; it is responsible for telling the user why.
type Guard struct {
	Name  string
	Check func(ctx context.Context, s *Session, ev Event) bool
}

// GuardChain refreshes the sender's profile and then runs guards in order,
// stopping at the first failure.
type GuardChain struct {
	users  UserStore
	rec    Recorder
	guards []Guard
}

func NewGuardChain(users UserStore, rec Recorder, guards ...Guard) GuardChain {
	if rec == nil {
		rec = nopRecorder{}
	}
	return GuardChain{users: users, rec: rec, guards: guards}
}

// With returns a copy of the chain with more guards appended.
func (c GuardChain) With(guards ...Guard) GuardChain {
	out := c
	out.guards = append(append([]Guard(nil), c.guards...), guards...)
	return out
}

// Allow reports whether every guard passed. The failing guard's name is
// returned for callers that care.
func (c GuardChain) Allow(ctx context.Context, s *Session, ev Event) (bool, string) {
	if ev.UserID != 0 {
		created, err := c.users.UpsertProfile(ctx, ev.Profile)
		if err != nil {
			slog.Error("failed to upsert profile", "user_id", ev.UserID, "error", err)
		} else if created {
			slog.Info("new user", "user_id", ev.UserID, "username", ev.Profile.Username)
		}
	}

	for _, g := range c.guards {
		if !g.Check(ctx, s, ev) {
			c.rec.GuardRejected(g.Name)
			slog.Debug("guard rejected event", "guard", g.Name, "user_id", ev.UserID, "event", ev.Signature())
			return false, g.Name
		}
	}
	return true, ""
}
