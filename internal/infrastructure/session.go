package infrastructure

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"geoassist/internal/entities"
)

// Session is the transient per-interaction state of one logged-in user. It is
// never persisted; the durable usage counter and payment flag live in the
// account store.
type Session struct {
	ID          string
	UserID      int
	Username    string
	PromptCount int  // prompts submitted this session, reset on logout
	PaymentMade bool // session-local flag, converges with the stored payment_done
	State       entities.GateState

	mu sync.Mutex
}

// Lock guards the session for one interaction; per the interaction model a
// session handles a single in-flight request at a time.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionManager tracks live sessions across surfaces (HTTP, Telegram).
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Create registers a fresh session for an authenticated user. When id is empty
// a random one is generated (the HTTP surface embeds it in the JWT).
func (sm *SessionManager) Create(id string, userID int, username string, paymentMade bool) *Session {
	if id == "" {
		id = newSessionID()
	}

	session := &Session{
		ID:          id,
		UserID:      userID,
		Username:    username,
		PaymentMade: paymentMade,
		State:       entities.StateActive,
	}

	sm.mu.Lock()
	sm.sessions[id] = session
	sm.mu.Unlock()
	return session
}

func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

func (sm *SessionManager) Delete(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

func newSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
