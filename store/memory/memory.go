package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/verification"
	"github.com/oklog/ulid/v2"
)

// VerificationStore keeps verification records in a map keyed by identifier.
type VerificationStore struct {
	mu      sync.Mutex
	records map[string]verification.Record
}

func NewVerificationStore() *VerificationStore {
	return &VerificationStore{
		records: make(map[string]verification.Record),
	}
}

// CreateVerification stores record, assigning an ID when it has none.
// An existing record under the same identifier yields [verification.ErrDuplicate].
func (s *VerificationStore) CreateVerification(_ context.Context, record verification.Record) error {
	if record.Identifier == "" {
		return errors.New("verification identifier required")
	}
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.Identifier]; ok {
		return verification.ErrDuplicate
	}
	s.records[record.Identifier] = record
	return nil
}

func (s *VerificationStore) FindVerification(_ context.Context, identifier string) (*verification.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[identifier]
	if !ok {
		return nil, verification.ErrNotFound
	}
	return &record, nil
}

// DeleteVerification removes the record only while it still carries record.ID.
func (s *VerificationStore) DeleteVerification(_ context.Context, record verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[record.Identifier]
	if !ok || current.ID != record.ID {
		return verification.ErrNotFound
	}
	delete(s.records, record.Identifier)
	return nil
}

// Len returns the number of stored records, expired ones included.
func (s *VerificationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// SessionStore keeps sessions keyed by durable token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session.Session),
		now:      time.Now,
	}
}

// WithClock overrides the time source used to hide expired sessions.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) SaveSession(_ context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return errors.New("session token required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = *sess
	return nil
}

func (s *SessionStore) FindSessionByToken(_ context.Context, token string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok || !sess.Live(s.now()) {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

// DeleteSession removes the session with token, if any.
func (s *SessionStore) DeleteSession(_ context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Users is a map-backed user provider.
type Users struct {
	mu    sync.RWMutex
	users map[string]session.User
}

func NewUsers(users ...session.User) *Users {
	u := &Users{users: make(map[string]session.User, len(users))}
	for _, user := range users {
		u.users[user.ID] = user
	}
	return u
}

func (u *Users) Put(user session.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[user.ID] = user
}

func (u *Users) GetUserByID(_ context.Context, userID string) (*session.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.users[userID]
	if !ok {
		return nil, session.ErrUserNotFound
	}
	return &user, nil
}
