// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package auth

import "context"

// ResetNotifier delivers a password-reset link to a user. Delivery is
// best-effort and fire-and-forget: the reset flow never blocks on it and
// never fails because of it.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}
