// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/token"
)

// User is an account in the directory.
type User struct {
	ID           ulid.ULID
	Email        string // always normalized, see NormalizeEmail
	FirstName    string
	LastName     string
	PasswordHash string
	Verified     bool
	// VerificationCode is kept after verification but no longer consulted.
	VerificationCode string
	// PasswordResetCode is nil unless a reset has been requested and not yet
	// completed.
	PasswordResetCode *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeEmail returns the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates an unverified User. The password must already be hashed.
func NewUser(email, firstName, lastName, passwordHash, verificationCode string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email is not a valid address")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if verificationCode == "" {
		return nil, oops.Code("USER_INVALID_CODE").Errorf("verification code cannot be empty")
	}

	return &User{
		ID:               ulid.Make(),
		Email:            email,
		FirstName:        strings.TrimSpace(firstName),
		LastName:         strings.TrimSpace(lastName),
		PasswordHash:     passwordHash,
		VerificationCode: verificationCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AccessClaims is the point-in-time identity snapshot signed into access
// tokens.
func (u *User) AccessClaims() *token.AccessClaims {
	return &token.AccessClaims{
		UserID:   u.ID.String(),
		Email:    u.Email,
		Verified: u.Verified,
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists the full current state of an existing user.
	Update(ctx context.Context, user *User) error
}
