// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// maxUserAgentLength bounds the stored User-Agent header.
const maxUserAgentLength = 512

// Session is one login lineage. Refresh tokens name a session and are only
// honored while it is valid.
type Session struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Valid     bool
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a valid Session for userID.
// UserAgent is optional. It is truncated to a bounded length and
// stripped of invalid UTF-8.
func NewSession(userID ulid.ULID, userAgent string, now time.Time) (*Session, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if len(userAgent) > maxUserAgentLength {
		userAgent = userAgent[:maxUserAgentLength]
	}
	// TEXT columns reject invalid UTF-8, including a rune cut by the
	// truncation above.
	userAgent = strings.ToValidUTF8(userAgent, "")
	return &Session{
		ID:        ulid.Make(),
		UserID:    userID,
		Valid:     true,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SessionRepository manages session persistence. Sessions are never edited
// to change ownership; invalidation is the only mutation.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByID retrieves a session by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Session, error)

	// Invalidate marks a session invalid. Invalidating an already invalid
	// session succeeds. Returns ErrNotFound if the session does not exist.
	Invalidate(ctx context.Context, id ulid.ULID) error
}
