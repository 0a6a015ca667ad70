// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/skillforge/skillforge/internal/auth"
)

// envelope is the uniform response body. Handler failures populate
// Message; middleware failures populate Error; validation failures
// populate Errors. The distinction is part of the public API contract.
type envelope struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Error      string       `json:"error,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
	Token      string       `json:"token,omitempty"`
	ResetToken string       `json:"resetToken,omitempty"`
	User       *auth.View   `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}

// writeMessage writes a handler-level failure: {success:false, message}.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeAuthError writes a middleware-level failure: {success:false, error}.
func writeAuthError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// writeValidationErrors writes the field-level error list.
func writeValidationErrors(w http.ResponseWriter, errs []FieldError) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Errors: errs})
}
