package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "marine_session"

type session struct {
	animal   string
	lastSeen time.Time
}

// SessionStore binds browser sessions to the animal currently being played.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an in-memory store whose idle sessions expire
// after ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Animal returns the animal bound to the request's session, or "".
func (s *SessionStore) Animal(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[c.Value]
	if !ok || s.now().Sub(sess.lastSeen) > s.ttl {
		return ""
	}
	sess.lastSeen = s.now()
	return sess.animal
}

// Bind stores animal in the request's session, creating the session and
// its cookie if needed.
func (s *SessionStore) Bind(w http.ResponseWriter, r *http.Request, animal string) {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		id = uuid.NewString()
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.animal = animal
	sess.lastSeen = s.now()
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartCleanup removes expired sessions until ctx is cancelled.
func (s *SessionStore) StartCleanup(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

func (s *SessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
