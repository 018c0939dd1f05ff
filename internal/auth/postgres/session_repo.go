// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool querier
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool querier) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, valid, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		session.ID.String(),
		session.UserID.String(),
		session.Valid,
		session.UserAgent,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, valid, user_agent, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`, id.String())

	var (
		idStr     string
		userIDStr string
		session   auth.Session
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&idStr, &userIDStr, &session.Valid, &session.UserAgent, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_ID_FAILED").
			With("operation", "get session by id").
			With("id", id.String()).
			Wrap(err)
	}

	if session.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}
	if session.UserID, err = ulid.Parse(userIDStr); err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").
			With("operation", "parse user id").
			With("user_id", userIDStr).
			Wrap(err)
	}
	session.CreatedAt = createdAt
	session.UpdatedAt = updatedAt
	return &session, nil
}

// Invalidate marks a session invalid. The row is matched whether or not it
// is already invalid, so repeating the call succeeds.
func (r *SessionRepository) Invalidate(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE sessions SET valid = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "invalidate session").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}
