// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the authentication and session lifecycle for holoauth.
//
// # Domain Types
//
// User and Session should be created using their constructors:
//   - NewUser - creates an unverified User with a normalized email
//   - NewSession - creates a valid Session owned by a user
//
// Changes to an existing User go through the pure transition functions in
// transitions.go (ApplyVerification, ApplyResetRequest, ApplyPasswordReset).
// They take the current snapshot and return the next one plus whether it must
// be persisted, so the rules can be tested without a repository.
//
// # Services
//
//   - AuthService - login, refresh, logout
//   - AccountService - registration, email verification, password reset
//   - IdentityResolver - per-request identity from access and refresh tokens
//
// Services are created with New* constructors that validate dependencies.
package auth
