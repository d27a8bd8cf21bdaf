package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the dispatcher-side state of one client connection. Closing it cancels every
// operation still running on its behalf.
type Session struct {
	ID        string
	Transport string
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	clientInfo      Implementation
	protocolVersion string
	initialized     bool
	inflight        map[string]context.CancelFunc
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) ClientInfo() Implementation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientInfo
}

func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Session) setClient(info Implementation, version string) {
	s.mu.Lock()
	s.clientInfo = info
	s.protocolVersion = version
	s.mu.Unlock()
}

func (s *Session) markInitialized() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

func requestKey(id json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, id); err != nil {
		return string(id)
	}
	return buf.String()
}

// begin derives the context of one request. The returned func must be called when the
// request is done.
func (s *Session) begin(id json.RawMessage) (context.Context, func()) {
	ctx, cancel := context.WithCancel(s.ctx)
	if len(id) == 0 {
		return ctx, cancel
	}
	key := requestKey(id)
	s.mu.Lock()
	s.inflight[key] = cancel
	s.mu.Unlock()
	return ctx, func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		cancel()
	}
}

// cancelRequest cancels one in-flight request and reports whether it was found.
func (s *Session) cancelRequest(id json.RawMessage) bool {
	key := requestKey(id)
	s.mu.Lock()
	cancel, ok := s.inflight[key]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// InFlight returns the number of requests still running.
func (s *Session) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

func (s *Session) Close() {
	s.cancel()
}

// SessionRegistry maps session ids to sessions. It belongs to the dispatcher; the
// operation layer never sees sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Create registers a new session whose context is derived from parent.
func (r *SessionRegistry) Create(parent context.Context, transport string) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:        uuid.NewString(),
		Transport: transport,
		CreatedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		inflight:  make(map[string]context.CancelFunc),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close removes the session and cancels its operations. It reports whether the id was known.
func (r *SessionRegistry) Close(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
