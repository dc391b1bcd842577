package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/set-night/seyedbot/internal/domain"
)

// relayCapture forwards the approver's next message to the requester.
type relayCapture struct {
	RequestID   int64
	RequesterID int64
}

// Session is the per-user conversation context. Every field is guarded by mu,
// which the Store hands out through Acquire/Release.
type Session struct {
	mu sync.Mutex

	UserID int64
	State  State
	Draft  Draft

	// Selected is the record an admin opened per kind; SelectedItem the item within it.
	Selected     map[domain.ContentKind]int64
	SelectedItem int64

	BroadcastFilter domain.BroadcastFilter

	selections map[domain.ContentKind]*SelectionMap

	relay     *relayCapture
	rejecting int64

	lastSeen time.Time
	deferred []func(context.Context)
	answered *bool
}

func newSession(userID int64) *Session {
	return &Session{
		UserID:     userID,
		Selected:   make(map[domain.ContentKind]int64),
		selections: make(map[domain.ContentKind]*SelectionMap),
	}
}

// Clear drops all workflow data and returns the session to Idle.
func (s *Session) Clear() {
	s.State = StateIdle
	s.Draft = nil
	s.Selected = make(map[domain.ContentKind]int64)
	s.SelectedItem = 0
	s.BroadcastFilter = ""
	s.relay = nil
	s.rejecting = 0
	s.ClearSelections()
}

func (s *Session) DiscardDraft() {
	s.Draft = nil
}

func (s *Session) SetSelection(m *SelectionMap) {
	s.selections[m.Kind] = m
}

func (s *Session) Selection(kind domain.ContentKind) *SelectionMap {
	return s.selections[kind]
}

func (s *Session) ClearSelections() {
	s.selections = make(map[domain.ContentKind]*SelectionMap)
}

// Defer schedules fn to run after the session lock is released.
func (s *Session) Defer(fn func(context.Context)) {
	s.deferred = append(s.deferred, fn)
}

// Store keeps sessions in memory keyed by user ID. Sessions are created on
// first use and dropped by EvictIdle.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session), now: time.Now}
}

// Acquire returns the locked session for userID, creating it if needed.
// The caller must call Release.
func (st *Store) Acquire(userID int64) *Session {
	st.mu.Lock()
	s, ok := st.sessions[userID]
	if !ok {
		s = newSession(userID)
		st.sessions[userID] = s
	}
	s.lastSeen = st.now()
	st.mu.Unlock()

	s.mu.Lock()
	return s
}

// Release unlocks s and returns the work it deferred.
func (st *Store) Release(s *Session) []func(context.Context) {
	deferred := s.deferred
	s.deferred = nil
	s.mu.Unlock()
	return deferred
}

// State reports the current state of userID without creating a session.
func (st *Store) State(userID int64) State {
	st.mu.Lock()
	s, ok := st.sessions[userID]
	st.mu.Unlock()
	if !ok {
		return StateIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// EvictIdle drops sessions unused for longer than maxIdle. Sessions currently
// locked by an in-flight event are skipped.
func (st *Store) EvictIdle(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-maxIdle)
	evicted := 0
	for id, s := range st.sessions {
		if s.lastSeen.After(cutoff) {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		delete(st.sessions, id)
		s.mu.Unlock()
		evicted++
	}
	return evicted
}
