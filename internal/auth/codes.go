// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/samber/oops"
)

// CodeBytes is the entropy of verification and password reset codes.
// Encoded, a code is 22 URL-safe characters.
const CodeBytes = 16

// GenerateCode returns a fresh random code for email verification or
// password reset. Codes are safe to embed in URL paths.
func GenerateCode() (string, error) {
	b := make([]byte, CodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("CODE_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", CodeBytes).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// codesEqual compares a stored code with a presented one in constant time.
// An empty stored code never matches.
func codesEqual(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
