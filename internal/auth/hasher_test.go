// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/pkg/errutil"
)

// cheapHasher keeps argon2 fast in tests.
func cheapHasher(t *testing.T) *auth.Argon2idHasher {
	t.Helper()
	h, err := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    1,
		Memory:  1024,
		Threads: 1,
		SaltLen: 16,
		KeyLen:  32,
	})
	require.NoError(t, err)
	return h
}

func TestHashPassword(t *testing.T) {
	hasher := cheapHasher(t)

	t.Run("produces PHC encoded hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})

	t.Run("hashes short passwords", func(t *testing.T) {
		hash, err := hasher.Hash("pw123")
		require.NoError(t, err)
		ok, err := hasher.Verify("pw123", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestNewArgon2idHasherWithParams_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params auth.Argon2Params
	}{
		{name: "zero time", params: auth.Argon2Params{Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}},
		{name: "zero memory", params: auth.Argon2Params{Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}},
		{name: "zero threads", params: auth.Argon2Params{Time: 1, Memory: 1024, SaltLen: 16, KeyLen: 32}},
		{name: "short salt", params: auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 4, KeyLen: 32}},
		{name: "short key", params: auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := auth.NewArgon2idHasherWithParams(tt.params)
			require.Error(t, err)
			assert.Nil(t, h)
			errutil.AssertErrorCode(t, err, "AUTH_HASHER_INVALID")
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	hasher := cheapHasher(t)

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hash made with default params verifies with any hasher", func(t *testing.T) {
		hash, err := auth.NewArgon2idHasher().Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	malformed := []struct {
		name     string
		hash     string
		contains string
	}{
		{name: "invalid format", hash: "not-a-valid-hash"},
		{name: "wrong algorithm", hash: "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", contains: "unsupported hash algorithm"},
		{name: "invalid version format", hash: "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "unsupported version", hash: "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA", contains: "unsupported argon2 version"},
		{name: "invalid parameters", hash: "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{name: "invalid salt base64", hash: "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA"},
		{name: "invalid hash base64", hash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!"},
		{name: "threads overflow", hash: "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA", contains: "threads value"},
		{name: "zero threads", hash: "$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$aGFzaA", contains: "threads value"},
	}

	for _, tt := range malformed {
		t.Run(tt.name+" returns error", func(t *testing.T) {
			_, err := hasher.Verify("password", tt.hash)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	hash, err := cheapHasher(t).Hash("pw123456")
	require.NoError(t, err)

	ok, err := auth.ValidatePassword(cheapHasher(t), hash, "pw123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.ValidatePassword(cheapHasher(t), hash, "pw1234567")
	require.NoError(t, err)
	assert.False(t, ok)

	// Parameters come from the stored hash, so the default hasher agrees.
	ok, err = auth.ValidatePassword(nil, hash, "pw123456")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, stored := range []string{"garbage", ""} {
		ok, err = auth.ValidatePassword(nil, stored, "pw123456")
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	}
}
