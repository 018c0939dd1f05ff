// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by UserRepository.Create when the email is
// already registered.
var ErrDuplicateEmail = errors.New("duplicate email")

// Rejection kinds. Service errors wrap exactly one of these so callers can
// classify a failure with errors.Is regardless of the oops code it carries.
// Any other error is a storage or internal failure.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverified         = errors.New("user is not verified")
	ErrRefreshRejected    = errors.New("refresh rejected")
	ErrLogoutRejected     = errors.New("logout rejected")
	ErrResetRejected      = errors.New("password reset rejected")
)

// User-visible messages. Services attach these to errors with oops.Public so
// the transport layer can show them without inspecting the cause.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgPleaseVerify       = "Please verify your email"
	MsgRefreshFailed      = "Could not refresh access token"
	MsgLoggedOut          = "Successfully logged out"
	MsgLogoutFailed       = "Could not log out"

	MsgUserCreated   = "User successfully created"
	MsgAccountExists = "Account already exists"
	MsgCreateFailed  = "Could not create user"

	MsgVerifyFailed    = "Could not verify user"
	MsgAlreadyVerified = "User is already verified"
	MsgVerified        = "User verified successfully"

	MsgResetRequested  = "If a user with that email is registered, you will receive a password reset email"
	MsgUserNotVerified = "User is not verified"
	MsgResetFailed     = "Could not reset user password"
	MsgPasswordUpdated = "Successfully updated password"
)
