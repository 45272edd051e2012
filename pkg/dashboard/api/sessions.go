package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mfreeman451/iotdash/pkg/dashboard"
	"github.com/mfreeman451/iotdash/pkg/logger"
)

// session is one browser's dashboard, keyed by the session cookie.
type session struct {
	id       string
	app      *dashboard.App
	lastSeen time.Time
}

// sessionStore owns every live App. Apps are mounted on creation and closed
// on eviction.
type sessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*session
	newApp      func() *dashboard.App
	idleTimeout time.Duration
	now         func() time.Time
	onChange    func(n int)
	log         logger.Logger
}

func newSessionStore(newApp func() *dashboard.App, idleTimeout time.Duration, log logger.Logger) *sessionStore {
	return &sessionStore{
		sessions:    make(map[string]*session),
		newApp:      newApp,
		idleTimeout: idleTimeout,
		now:         time.Now,
		onChange:    func(int) {},
		log:         log,
	}
}

// lookup returns a live session and marks it as seen.
func (s *sessionStore) lookup(id string) (*session, error) {
	if id == "" {
		return nil, errSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}

	sess.lastSeen = s.now()

	return sess, nil
}

// create starts a new session with a freshly mounted App.
func (s *sessionStore) create() *session {
	sess := &session{
		id:  uuid.NewString(),
		app: s.newApp(),
	}

	s.mu.Lock()
	sess.lastSeen = s.now()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.onChange(n)

	return sess
}

// sweep closes sessions idle for longer than idleTimeout.
func (s *sessionStore) sweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.idleTimeout)

	var expired []*session

	s.mu.Lock()

	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}

	n := len(s.sessions)
	s.mu.Unlock()

	if len(expired) == 0 {
		return nil
	}

	for _, sess := range expired {
		sess.app.Close()
	}

	s.onChange(n)

	s.log.Info(ctx, "evicted idle sessions",
		logger.Int("evicted", len(expired)),
		logger.Int("remaining", n))

	return nil
}

// closeAll unmounts every App.
func (s *sessionStore) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.app.Close()
	}

	s.onChange(0)
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
