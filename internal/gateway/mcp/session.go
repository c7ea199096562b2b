package mcp

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/toolgate/pkg/idx"
)

// Session is one protocol session. It is in-memory only and disappears on
// restart or after sitting idle past the registry's TTL.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	lastActivity time.Time
	initialized  bool
	channel      *PushChannel
}

// Touch records activity so the sweeper leaves the session alone.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// LastActivity returns the most recent activity timestamp.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// MarkInitialized records a completed initialize handshake.
func (s *Session) MarkInitialized() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

// Initialized reports whether the session has completed initialize.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// AttachChannel installs a push channel, closing any previous one. A session
// holds at most one live channel; the newest connection wins.
func (s *Session) AttachChannel(ch *PushChannel) {
	s.mu.Lock()
	prev := s.channel
	s.channel = ch
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

// DetachChannel clears the channel handle if it still belongs to ch. The
// session itself survives so a reconnect can pick it back up.
func (s *Session) DetachChannel(ch *PushChannel) {
	s.mu.Lock()
	if s.channel == ch {
		s.channel = nil
	}
	s.mu.Unlock()
}

// Channel returns the live push channel, or nil when none is attached.
func (s *Session) Channel() *PushChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// SessionRegistry tracks live sessions keyed by id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
}

// NewSessionRegistry creates a registry whose sweeper evicts sessions idle
// longer than idleTTL (default 30 minutes).
func NewSessionRegistry(idleTTL time.Duration) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
	}
}

// Resolve returns the session for the given header id, creating a fresh one
// when the id is empty, unknown, or was evicted. Callers always get a usable
// session back; the response header tells the client which id to use next.
func (r *SessionRegistry) Resolve(headerID string) *Session {
	if headerID != "" {
		r.mu.RLock()
		sess, ok := r.sessions[headerID]
		r.mu.RUnlock()
		if ok {
			sess.Touch()
			return sess
		}
	}

	now := time.Now()
	sess := &Session{
		ID:           idx.New().String(),
		CreatedAt:    now,
		lastActivity: now,
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	return sess
}

// Get returns an existing session without creating one.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle longer than the registry TTL and closes their
// push channels. Returns the number of evicted sessions.
func (r *SessionRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	var evicted []*Session
	for id, sess := range r.sessions {
		if now.Sub(sess.LastActivity()) > r.idleTTL {
			delete(r.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	r.mu.Unlock()

	for _, sess := range evicted {
		if ch := sess.Channel(); ch != nil {
			ch.Close()
		}
	}
	return len(evicted)
}
