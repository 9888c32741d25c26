// internal/application/usecase/session_manager.go
package usecase

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	cartdom "heartwood/internal/domain/cart"
)

var (
	ErrSessionManagerNotConfigured = errors.New("session_manager: not configured")
)

const (
	// sessionIdleTTL bounds how long an untouched session (and its mirror
	// listener) is kept. Guest snapshots survive eviction on disk; an
	// evicted visitor who returns gets a fresh engine over the same data.
	sessionIdleTTL = 30 * time.Minute
	sweepInterval  = 5 * time.Minute
)

// SessionManager owns the cart sessions of this server instance, one per
// storefront visitor. Sessions are created lazily on first sight of a
// session id and evicted after sessionIdleTTL without a request.
type SessionManager struct {
	store  cartdom.Persistence
	mirror cartdom.Mirror
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	closed   bool

	stopSweep chan struct{}
}

type sessionEntry struct {
	sess     *CartSession
	lastSeen time.Time
}

func NewSessionManager(store cartdom.Persistence, mirror cartdom.Mirror) (*SessionManager, error) {
	if mirror == nil {
		return nil, ErrSessionManagerNotConfigured
	}
	m := &SessionManager{
		store:     store,
		mirror:    mirror,
		now:       time.Now,
		sessions:  map[string]*sessionEntry{},
		stopSweep: make(chan struct{}),
	}
	go m.sweep()
	return m, nil
}

// NewID issues a fresh session identifier for a first-time visitor.
func (m *SessionManager) NewID() string {
	return uuid.NewString()
}

// Session returns the cart session for id, constructing it (and loading its
// local snapshot) on first access. Every access refreshes the idle timer.
func (m *SessionManager) Session(id string) (*CartSession, error) {
	sid := strings.TrimSpace(id)
	if sid == "" {
		return nil, ErrSessionInvalidArgument
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrSessionClosed
	}

	if e, ok := m.sessions[sid]; ok {
		e.lastSeen = m.now()
		return e.sess, nil
	}

	local, err := cartdom.NewLocalCart(m.store, "cart-"+sid)
	if err != nil {
		return nil, err
	}
	s, err := NewCartSession(sid, local, m.mirror)
	if err != nil {
		return nil, err
	}
	m.sessions[sid] = &sessionEntry{sess: s, lastSeen: m.now()}
	return s, nil
}

func (m *SessionManager) sweep() {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-m.stopSweep:
			return
		case <-t.C:
			m.evictIdle()
		}
	}
}

// evictIdle closes and removes every session untouched for sessionIdleTTL.
func (m *SessionManager) evictIdle() {
	cutoff := m.now().Add(-sessionIdleTTL)

	m.mu.Lock()
	var evicted []*CartSession
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	if len(evicted) > 0 {
		log.Printf("[session_manager] evicted %d idle session(s)", len(evicted))
	}
}

// Close stops all sessions and the eviction sweep. Used on server shutdown.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stopSweep)
	entries := m.sessions
	m.sessions = map[string]*sessionEntry{}
	m.mu.Unlock()

	for _, e := range entries {
		e.sess.Close()
	}
	return nil
}
