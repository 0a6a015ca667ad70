// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

// Package notify provides outbound delivery of password-reset links.
//
// Real email delivery is an external concern; this package ships a
// log-backed sender for development and self-hosted deployments where
// operators read the reset link from the service log.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// LogSender writes reset links to the structured log instead of sending
// email. Never use in production with log aggregation readable by
// untrusted parties: the link grants a password reset.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) (*LogSender, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &LogSender{logger: logger}, nil
}

// SendPasswordReset logs the reset link for the operator to relay.
func (s *LogSender) SendPasswordReset(ctx context.Context, email, link string) error {
	s.logger.InfoContext(ctx, "password reset link issued",
		"email", email,
		"link", link,
	)
	return nil
}
