package services

import (
	"sync"
	"time"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

const defaultIdleTimeout = 30 * time.Minute

// sessionRegistry keeps one progress session per authenticated user
type sessionRegistry struct {
	syncer      ProgressSyncer
	content     ContentRepository
	logger      *zap.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*progressSession
}

// NewSessionRegistry creates a registry whose sessions expire after "idleTimeout" without use
func NewSessionRegistry(syncer ProgressSyncer, content ContentRepository, logger *zap.Logger, idleTimeout time.Duration) *sessionRegistry {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	return &sessionRegistry{
		syncer:      syncer,
		content:     content,
		logger:      logger,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*progressSession),
	}
}

// Get returns the session of the identity, creating it if needed
//
// Anonymous identities get a fresh session that is not registered.
// A session is rebuilt when the identity presents a different bearer token.
func (r *sessionRegistry) Get(identity models.Identity) *progressSession {
	if !identity.IsAuthenticated() {
		return NewProgressSession(identity, r.syncer, r.content, r.logger)
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[identity.UserID]
	if !ok || session.identity.Token != identity.Token {
		session = NewProgressSession(identity, r.syncer, r.content, r.logger)
		r.sessions[identity.UserID] = session
	}
	session.touch(now)

	return session
}

// Reset drops the session of a user, as done on sign out
func (r *sessionRegistry) Reset(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[userID]; ok {
		session.store.Reset()
		delete(r.sessions, userID)
	}
	r.syncer.Forget(userID)
}

// Sweep drops sessions idle for longer than the idle timeout and returns how many were dropped
func (r *sessionRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for userID, session := range r.sessions {
		if session.idleSince(now) > r.idleTimeout {
			delete(r.sessions, userID)
			r.syncer.Forget(userID)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of registered sessions
func (r *sessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
