package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usergate/user_service/internal/domain/user"
	"github.com/usergate/user_service/internal/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu           sync.RWMutex
	users        map[string]user.User
	usersByEmail map[string]string
}

var _ storage.UserStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:        make(map[string]user.User),
		usersByEmail: make(map[string]string),
	}
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return s.users[id], nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	delete(s.usersByEmail, existing.Email)
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}

	delete(s.users, id)
	delete(s.usersByEmail, u.Email)
	return nil
}
