// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "time"

// VerifyOutcome is the result of presenting a verification code.
type VerifyOutcome int

// Verification outcomes.
const (
	VerifyRejected VerifyOutcome = iota
	VerifyAlreadyDone
	VerifyAccepted
)

// Message returns the user-visible text for the outcome.
func (o VerifyOutcome) Message() string {
	switch o {
	case VerifyAccepted:
		return MsgVerified
	case VerifyAlreadyDone:
		return MsgAlreadyVerified
	default:
		return MsgVerifyFailed
	}
}

// Persist reports whether the outcome changed the user.
func (o VerifyOutcome) Persist() bool {
	return o == VerifyAccepted
}

// ApplyVerification checks code against u and returns the next snapshot.
// An already verified user is returned unchanged.
func ApplyVerification(u User, code string, now time.Time) (User, VerifyOutcome) {
	if u.Verified {
		return u, VerifyAlreadyDone
	}
	if !codesEqual(u.VerificationCode, code) {
		return u, VerifyRejected
	}
	u.Verified = true
	u.UpdatedAt = now
	return u, VerifyAccepted
}

// ApplyResetRequest stores a fresh reset code on u, replacing any earlier one.
func ApplyResetRequest(u User, code string, now time.Time) User {
	u.PasswordResetCode = &code
	u.UpdatedAt = now
	return u
}

// CanResetPassword reports whether code matches the pending reset code.
func CanResetPassword(u User, code string) bool {
	return u.PasswordResetCode != nil && codesEqual(*u.PasswordResetCode, code)
}

// ApplyPasswordReset consumes the reset code and replaces the password hash.
// It returns false with u unchanged when code does not match a pending reset.
func ApplyPasswordReset(u User, code, newHash string, now time.Time) (User, bool) {
	if !CanResetPassword(u, code) {
		return u, false
	}
	u.PasswordResetCode = nil
	u.PasswordHash = newHash
	u.UpdatedAt = now
	return u, true
}
