// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory implements the auth repositories in process memory.
// It backs the memory database driver and the scenario tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// Store holds users and sessions. Records are copied on the way in and out,
// so callers never share memory with the store.
type Store struct {
	mu       sync.RWMutex
	users    map[ulid.ULID]auth.User
	emails   map[string]ulid.ULID
	sessions map[ulid.ULID]auth.Session
	now      func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[ulid.ULID]auth.User),
		emails:   make(map[string]ulid.ULID),
		sessions: make(map[ulid.ULID]auth.Session),
		now:      time.Now,
	}
}

// Users returns the store as an auth.UserRepository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Sessions returns the store as an auth.SessionRepository.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }

// UserRepository implements auth.UserRepository over a Store.
type UserRepository struct{ s *Store }

// SessionRepository implements auth.SessionRepository over a Store.
type SessionRepository struct{ s *Store }

var (
	_ auth.UserRepository    = (*UserRepository)(nil)
	_ auth.SessionRepository = (*SessionRepository)(nil)
)

func copyUser(u auth.User) *auth.User {
	if u.PasswordResetCode != nil {
		code := *u.PasswordResetCode
		u.PasswordResetCode = &code
	}
	return &u
}

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.emails[user.Email]; taken {
		return oops.Code("USER_DUPLICATE_EMAIL").
			With("user_id", user.ID.String()).
			Wrap(auth.ErrDuplicateEmail)
	}
	if _, exists := r.s.users[user.ID]; exists {
		return oops.Code("USER_CREATE_FAILED").
			With("user_id", user.ID.String()).
			Errorf("user id already exists")
	}
	r.s.users[user.ID] = *copyUser(*user)
	r.s.emails[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return copyUser(user), nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return copyUser(r.s.users[id]), nil
}

// Update replaces the stored state of an existing user.
func (r *UserRepository) Update(_ context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", user.ID.String()).Wrap(auth.ErrNotFound)
	}
	if user.Email != current.Email {
		if _, taken := r.s.emails[user.Email]; taken {
			return oops.Code("USER_DUPLICATE_EMAIL").
				With("user_id", user.ID.String()).
				Wrap(auth.ErrDuplicateEmail)
		}
		delete(r.s.emails, current.Email)
		r.s.emails[user.Email] = user.ID
	}
	r.s.users[user.ID] = *copyUser(*user)
	return nil
}

// Create stores a new session.
func (r *SessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[session.UserID]; !ok {
		return oops.Code("SESSION_CREATE_FAILED").
			With("user_id", session.UserID.String()).
			Errorf("session references unknown user")
	}
	r.s.sessions[session.ID] = *session
	return nil
}

// GetByID retrieves a session by ID.
func (r *SessionRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return &session, nil
}

// Invalidate marks a session invalid.
func (r *SessionRepository) Invalidate(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	session.Valid = false
	session.UpdatedAt = r.s.now()
	r.s.sessions[id] = session
	return nil
}
