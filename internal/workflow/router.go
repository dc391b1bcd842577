package workflow

import (
	"context"
	"strings"
)

// Handler processes an event in a state and returns the next state.
type Handler func(ctx context.Context, s *Session, ev Event) State

// Matcher decides whether a route accepts an event.
type Matcher func(ev Event) bool

type route struct {
	match  Matcher
	handle Handler
}

// Router holds the allow-list of events per state. A state with no routes is
// not part of the machine.
type Router struct {
	routes map[State][]route
}

func NewRouter() *Router {
	return &Router{routes: make(map[State][]route)}
}

func (r *Router) On(state State, m Matcher, h Handler) {
	r.routes[state] = append(r.routes[state], route{match: m, handle: h})
}

// Has reports whether state belongs to the machine.
func (r *Router) Has(state State) bool {
	_, ok := r.routes[state]
	return ok
}

// Resolve returns the first handler registered for state that matches ev.
func (r *Router) Resolve(state State, ev Event) (Handler, bool) {
	for _, rt := range r.routes[state] {
		if rt.match(ev) {
			return rt.handle, true
		}
	}
	return nil, false
}

func OnCallback(data string) Matcher {
	return func(ev Event) bool {
		return ev.Kind == EventCallback && ev.Data == data
	}
}

func OnCallbackPrefix(prefix string) Matcher {
	return func(ev Event) bool {
		return ev.Kind == EventCallback && strings.HasPrefix(ev.Data, prefix)
	}
}

func OnText() Matcher {
	return func(ev Event) bool {
		return ev.Kind == EventText
	}
}

func OnMedia() Matcher {
	return func(ev Event) bool {
		return ev.Kind == EventMedia
	}
}
