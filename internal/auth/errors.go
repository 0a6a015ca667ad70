// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package auth

import "errors"

// Domain outcomes. The HTTP layer maps these to statuses; anything else
// coming out of the service is an infrastructure failure and surfaces as
// a generic 500.
var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUser is returned when registration collides with an
	// existing email or username. Deliberately a single error: the caller
	// must not learn which field conflicted.
	ErrDuplicateUser = errors.New("user already exists with this email or username")

	// ErrInvalidCredentials is returned for both unknown-email and
	// wrong-password logins so the two are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired is returned when a token's signature is valid but
	// its expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrNotResetToken is returned when a structurally valid token is
	// presented to ResetPassword but does not carry the password-reset
	// purpose claim (e.g. a session token).
	ErrNotResetToken = errors.New("invalid reset token")
)
