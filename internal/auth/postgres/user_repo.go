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

const emailConstraint = "idx_users_email"

const userColumns = `id, email, first_name, last_name, password_hash, verified,
		verification_code, password_reset_code, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool querier
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user. A taken email yields auth.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		user.ID.String(),
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Verified,
		user.VerificationCode,
		user.PasswordResetCode,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, emailConstraint) {
			return oops.Code("USER_DUPLICATE_EMAIL").
				With("user_id", user.ID.String()).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// Update writes every mutable field of user in one statement.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = $2,
			first_name = $3,
			last_name = $4,
			password_hash = $5,
			verified = $6,
			verification_code = $7,
			password_reset_code = $8,
			updated_at = $9
		WHERE id = $1
	`,
		user.ID.String(),
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Verified,
		user.VerificationCode,
		user.PasswordResetCode,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, emailConstraint) {
			return oops.Code("USER_DUPLICATE_EMAIL").
				With("user_id", user.ID.String()).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser returns pgx.ErrNoRows unwrapped so callers can map it.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr     string
		user      auth.User
		resetCode *string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&idStr,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Verified,
		&user.VerificationCode,
		&resetCode,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}

	user.ID = id
	user.PasswordResetCode = resetCode
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return &user, nil
}
