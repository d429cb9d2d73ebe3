package orchestrator

import (
	"sync"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// Step is the position of a chat in its bot's conversation.
type Step int

const (
	StepIdle Step = iota
	StepAwaitClientEmail
	StepAwaitClientName
	StepAwaitDocument
	StepAwaitLoginEmail
	StepAwaitCode
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitClientEmail:
		return "await_client_email"
	case StepAwaitClientName:
		return "await_client_name"
	case StepAwaitDocument:
		return "await_document"
	case StepAwaitLoginEmail:
		return "await_login_email"
	case StepAwaitCode:
		return "await_code"
	default:
		return "unknown"
	}
}

// Session is the scratch state of one chat.
type Session struct {
	ChatID int64
	Step   Step

	// lawyer intake
	ClientEmail    string
	ClientFullName string

	// client identity, set once the email lookup succeeded
	ClientID   int64
	ClientName string

	// pending signature
	DocumentID int64
	Role       interfaces.Role
}

// Reset clears everything but the chat id.
func (s *Session) Reset() {
	*s = Session{ChatID: s.ChatID}
}

// SessionStore keeps one Session per chat. Events of the same chat are
// handled one at a time.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*chatSession
}

type chatSession struct {
	mu      sync.Mutex
	session Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*chatSession)}
}

func (s *SessionStore) entry(chatID int64) *chatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[chatID]
	if !ok {
		cs = &chatSession{session: Session{ChatID: chatID}}
		s.sessions[chatID] = cs
	}
	return cs
}

// Do runs fn with exclusive access to chatID's session.
func (s *SessionStore) Do(chatID int64, fn func(*Session) Reply) Reply {
	cs := s.entry(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return fn(&cs.session)
}

// Get returns a copy of chatID's session.
func (s *SessionStore) Get(chatID int64) Session {
	cs := s.entry(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.session
}
