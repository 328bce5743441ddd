package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"saturday/internal/agent"
)

// Responder is the slice of the routing agent the chat endpoint needs.
type Responder interface {
	Respond(ctx context.Context, query string) (*agent.Reply, error)
}

// AgentFactory builds a fresh agent for a new session.
type AgentFactory func() Responder

const (
	// maxSessions bounds the registry; the oldest idle session is
	// evicted when full.
	maxSessions = 64

	// sessionIdleLimit is how long an untouched session survives.
	sessionIdleLimit = time.Hour
)

type session struct {
	agent    Responder
	lastSeen time.Time
}

// SessionRegistry maps session IDs to their agents. Conversation state
// (history, pending query, web permission) lives inside the agent, so
// each browser tab or caller gets its own.
type SessionRegistry struct {
	factory AgentFactory

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(factory AgentFactory) *SessionRegistry {
	return &SessionRegistry{
		factory:  factory,
		sessions: make(map[string]*session),
	}
}

// Acquire returns the agent for id, creating a new session when id is
// empty or unknown. The returned ID identifies the session for
// follow-up requests.
func (r *SessionRegistry) Acquire(id string) (string, Responder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	if id != "" {
		if s, ok := r.sessions[id]; ok {
			s.lastSeen = time.Now()
			return id, s.agent
		}
	}

	id = uuid.NewString()
	r.sessions[id] = &session{agent: r.factory(), lastSeen: time.Now()}
	return id, r.sessions[id].agent
}

// Len reports the current session count.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// pruneLocked drops idle sessions and, if the registry is still full,
// the least recently used one.
func (r *SessionRegistry) pruneLocked() {
	now := time.Now()
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > sessionIdleLimit {
			delete(r.sessions, id)
		}
	}

	if len(r.sessions) < maxSessions {
		return
	}
	oldestID := ""
	var oldest time.Time
	for id, s := range r.sessions {
		if oldestID == "" || s.lastSeen.Before(oldest) {
			oldestID, oldest = id, s.lastSeen
		}
	}
	delete(r.sessions, oldestID)
}
