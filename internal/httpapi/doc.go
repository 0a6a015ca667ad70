// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

// Package httpapi exposes the auth operations over HTTP: the
// /api/auth/* routes, field-level request validation, and the
// authorization middleware chain that gates protected endpoints.
package httpapi
