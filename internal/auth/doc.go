// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

// Package auth implements the credential and session-token lifecycle for
// SkillForge accounts: password hashing, JWT issuance and verification,
// and the register/login/refresh/reset flows that tie them together.
//
// Persistence is abstracted behind UserRepository; outbound reset-link
// delivery behind ResetNotifier. The package owns no storage of its own;
// session validity is purely a function of token signature and expiry.
package auth
