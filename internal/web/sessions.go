package web

import (
	"sync"
	"time"

	"askpdf/internal/helper"
	"askpdf/internal/rag"
)

const sessionCookie = "askpdf_session"

// userSession is one browser's pipeline session plus the credential it entered.
// The credential lives only here, in memory.
type userSession struct {
	rag *rag.Session

	mu         sync.Mutex
	credential string
	lastSeen   time.Time
}

func (u *userSession) setCredential(c string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.credential = c
}

func (u *userSession) getCredential() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.credential
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*userSession
	ttl      time.Duration
	now      func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*userSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// get returns the live session for id and refreshes its expiry.
func (st *sessionStore) get(id string) (*userSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked()
	us, ok := st.sessions[id]
	if ok {
		us.lastSeen = st.now()
	}
	return us, ok
}

func (st *sessionStore) create(r *rag.RAG) (string, *userSession, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return "", nil, err
	}
	us := &userSession{rag: r.NewSession(), lastSeen: st.now()}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	st.sessions[id] = us
	return id, us, nil
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// sweepLocked drops sessions idle for longer than the ttl, releasing their
// documents and indexes.
func (st *sessionStore) sweepLocked() {
	cutoff := st.now().Add(-st.ttl)
	for id, us := range st.sessions {
		if us.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
}
