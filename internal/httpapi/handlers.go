// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skillforge/skillforge/internal/auth"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// decodeBody decodes the JSON request body into dst. A malformed body
// is reported as a handler-level 400; the caller should return
// immediately when false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleRegister creates an account and issues a session token.
//
// POST /api/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	user, token, err := s.svc.Register(r.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	})
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateUser) {
			writeMessage(w, http.StatusBadRequest, "User already exists with this email or username")
			return
		}
		s.logger.Error("registration failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	s.metrics.RecordRegistration()
	view := user.PublicView()
	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "User registered successfully",
		Token:   token,
		User:    &view,
	})
}

// handleLogin verifies credentials and issues a session token.
//
// POST /api/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	user, token, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.metrics.RecordLogin("failure")
			writeMessage(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	s.metrics.RecordLogin("success")
	view := user.SessionView()
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    &view,
	})
}

// handleRefresh issues a fresh session token for the authenticated user.
//
// POST /api/auth/refresh (requires Authenticate)
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	refreshed, token, err := s.svc.RefreshToken(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error("token refresh failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error during token refresh")
		return
	}

	s.metrics.RecordTokenRefresh()
	view := refreshed.RefreshView()
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Token:   token,
		User:    &view,
	})
}

// handleLogout acknowledges a logout. Tokens are stateless and not
// revocable, so this only confirms the client should discard its copy.
//
// POST /api/auth/logout (requires Authenticate)
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context()); err != nil {
		s.logger.Error("logout failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error during logout")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Logout successful",
	})
}

// handleForgotPassword starts the password-reset flow. The response is
// identical whether or not the account exists. Outside production the
// raw reset token is echoed back for manual testing.
//
// POST /api/auth/forgot-password
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	token, err := s.svc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		s.logger.Error("password reset request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error during password reset request")
		return
	}

	s.metrics.RecordPasswordReset("requested")
	resp := envelope{
		Success: true,
		Message: "If an account with that email exists, a password reset link has been sent",
	}
	if !s.production {
		resp.ResetToken = token
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResetPassword completes the reset flow with a challenge token
// and a new password.
//
// POST /api/auth/reset-password
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	if err := s.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrNotResetToken):
			writeMessage(w, http.StatusBadRequest, "Invalid reset token")
		case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid):
			writeMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
		case errors.Is(err, auth.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "User not found")
		default:
			s.logger.Error("password reset failed", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Server error during password reset")
		}
		return
	}

	s.metrics.RecordPasswordReset("completed")
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Password reset successful",
	})
}

// handleMe returns the authenticated user's full record.
//
// GET /api/auth/me (requires Authenticate)
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	current, err := s.svc.GetCurrentUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error("current user lookup failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error fetching user data")
		return
	}

	view := current.FullView()
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		User:    &view,
	})
}
