// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/holoauth/pkg/errutil"
)

var errSentinel = errors.New("sentinel")

func TestAssertErrorCode_WrappedCode(t *testing.T) {
	inner := oops.Code("SESSION_NOT_FOUND").Wrap(errSentinel)
	errutil.AssertErrorCode(t, inner, "SESSION_NOT_FOUND")

	outer := oops.With("operation", "refresh").Wrap(inner)
	errutil.AssertErrorCode(t, outer, "SESSION_NOT_FOUND")
}

func TestAssertErrorContext_MergesLayers(t *testing.T) {
	err := oops.With("operation", "refresh").Wrap(
		oops.With("session_id", "01J").Errorf("not found"),
	)
	errutil.AssertErrorContext(t, err, "session_id", "01J")
	errutil.AssertErrorContext(t, err, "operation", "refresh")
}

func TestAssertPublicMessage(t *testing.T) {
	err := oops.Code("AUTH_REFRESH_FAILED").Public("Could not refresh access token").Wrap(errSentinel)
	errutil.AssertPublicMessage(t, err, "Could not refresh access token")
}
