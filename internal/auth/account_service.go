// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// EmailKind identifies the purpose of an outbound email.
type EmailKind string

// Email kinds.
const (
	EmailVerification  EmailKind = "verification"
	EmailPasswordReset EmailKind = "password_reset"
)

// Email is a message handed to the delivery collaborator.
type Email struct {
	Kind    EmailKind `json:"kind"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}

// Mailer delivers account emails. Delivery is best-effort: failures are
// logged and never fail the operation that triggered them.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Registration is the input to AccountService.Register.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AccountService owns registration, email verification, and password reset.
type AccountService struct {
	users  UserRepository
	hasher PasswordHasher
	mailer Mailer
	logger *slog.Logger
	now    func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserRepository, hasher PasswordHasher, mailer Mailer, opts ...Option) (*AccountService, error) {
	if users == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if mailer == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("mailer is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("logger is required")
	}

	return &AccountService{
		users:  users,
		hasher: hasher,
		mailer: mailer,
		logger: o.logger,
		now:    o.now,
	}, nil
}

// Register creates an unverified user with a fresh verification code and
// sends the verification email.
func (s *AccountService) Register(ctx context.Context, reg Registration) (*User, error) {
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "hash password").
			Public(MsgCreateFailed).
			Wrap(err)
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "generate verification code").
			Public(MsgCreateFailed).
			Wrap(err)
	}

	user, err := NewUser(reg.Email, reg.FirstName, reg.LastName, hash, code, s.now())
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "new user").
			Public(MsgCreateFailed).
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
				Public(MsgAccountExists).
				Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "persist user").
			Public(MsgCreateFailed).
			Wrap(err)
	}

	s.send(ctx, Email{
		Kind:    EmailVerification,
		To:      user.Email,
		Subject: "Verify your email",
		Body:    fmt.Sprintf("verification code: %s. Id: %s", user.VerificationCode, user.ID),
	})

	return user, nil
}

// Verify presents a verification code for a user and returns the outcome
// message. Unknown users and wrong codes share the failure message. Only
// storage failures return an error.
func (s *AccountService) Verify(ctx context.Context, userID, code string) (string, error) {
	id, err := ulid.Parse(userID)
	if err != nil {
		return MsgVerifyFailed, nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MsgVerifyFailed, nil
		}
		return "", oops.Code("VERIFY_FAILED").
			With("operation", "get user").
			With("user_id", userID).
			Wrap(err)
	}

	next, outcome := ApplyVerification(*user, code, s.now())
	if outcome.Persist() {
		if err := s.users.Update(ctx, &next); err != nil {
			return "", oops.Code("VERIFY_FAILED").
				With("operation", "update user").
				With("user_id", userID).
				Wrap(err)
		}
	}
	return outcome.Message(), nil
}

// RequestPasswordReset issues a reset code for a verified user and emails it.
// Unknown emails get the same message as a successful request. Unverified
// users are told so.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MsgResetRequested, nil
		}
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	if !user.Verified {
		return MsgUserNotVerified, nil
	}

	code, err := GenerateCode()
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset code").
			Wrap(err)
	}

	next := ApplyResetRequest(*user, code, s.now())
	if err := s.users.Update(ctx, &next); err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "update user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.send(ctx, Email{
		Kind:    EmailPasswordReset,
		To:      next.Email,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Password reset code: %s. Id: %s", code, next.ID),
	})

	return MsgResetRequested, nil
}

// ResetPassword replaces the password of userID when code matches the
// pending reset code, and consumes the code. Every rejection returns the
// same error.
func (s *AccountService) ResetPassword(ctx context.Context, userID, code, newPassword string) error {
	id, err := ulid.Parse(userID)
	if err != nil {
		return resetRejected(err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return resetRejected(err)
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "get user").
			With("user_id", userID).
			Wrap(err)
	}

	if !CanResetPassword(*user, code) {
		return resetRejected(errors.New("reset code mismatch"))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return resetRejected(err)
	}

	next, ok := ApplyPasswordReset(*user, code, hash, s.now())
	if !ok {
		return resetRejected(errors.New("reset code mismatch"))
	}
	if err := s.users.Update(ctx, &next); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "update user").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}

func (s *AccountService) send(ctx context.Context, email Email) {
	if err := s.mailer.Send(ctx, email); err != nil {
		s.logger.Warn("failed to send email",
			"event", "email_send_failed",
			"kind", string(email.Kind),
			"error", err.Error(),
		)
	}
}

func resetRejected(cause error) error {
	return oops.Code("RESET_FAILED").
		With("cause", cause.Error()).
		Public(MsgResetFailed).
		Wrap(ErrResetRejected)
}
