// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package httpapi

import (
	"net/mail"
	"strings"

	"github.com/skillforge/skillforge/internal/auth"
)

// FieldError reports one invalid request field. Validation runs before
// the service is invoked; a non-empty list short-circuits the operation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// normalizeEmail lowercases and trims an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (r *registerRequest) validate() []FieldError {
	var errs []FieldError

	r.Email = normalizeEmail(r.Email)
	if !validEmail(r.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(r.Password) < auth.MinPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if strings.TrimSpace(r.FirstName) == "" {
		errs = append(errs, FieldError{Field: "firstName", Message: "is required"})
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs = append(errs, FieldError{Field: "lastName", Message: "is required"})
	}
	r.Username = strings.TrimSpace(r.Username)
	if !auth.ValidUsername(r.Username) {
		errs = append(errs, FieldError{Field: "username", Message: "must be at least 3 alphanumeric characters"})
	}
	return errs
}

func (r *loginRequest) validate() []FieldError {
	var errs []FieldError

	r.Email = normalizeEmail(r.Email)
	if !validEmail(r.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "is required"})
	}
	return errs
}

func (r *forgotPasswordRequest) validate() []FieldError {
	var errs []FieldError

	r.Email = normalizeEmail(r.Email)
	if !validEmail(r.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	return errs
}

func (r *resetPasswordRequest) validate() []FieldError {
	var errs []FieldError

	if r.Token == "" {
		errs = append(errs, FieldError{Field: "token", Message: "is required"})
	}
	if len(r.Password) < auth.MinPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	return errs
}
