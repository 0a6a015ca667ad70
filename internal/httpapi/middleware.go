// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skillforge/skillforge/internal/auth"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyUser      contextKey = "user"
	ctxKeyToken     contextKey = "token"
)

// UserFromContext returns the identity attached by Authenticate or
// OptionalAuthenticate, if any.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(*auth.User)
	return u, ok
}

// TokenFromContext returns the raw bearer token attached by Authenticate.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(ctxKeyToken).(string)
	return t, ok
}

// bearerToken extracts the token from an Authorization: Bearer header.
// Returns empty when the header is absent or not bearer-shaped.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate resolves the bearer token to a live account and attaches
// it to the request context. The three rejection cases carry distinct
// messages because clients report them differently; an unexpected store
// failure is a 500, not a 401.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "No authentication token provided")
			return
		}

		claims, err := s.tokens.VerifySession(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeAuthError(w, http.StatusUnauthorized, "Token expired")
				return
			}
			writeAuthError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := s.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				// Valid token for a deleted account.
				writeAuthError(w, http.StatusUnauthorized, "User not found")
				return
			}
			s.logger.Error("authentication lookup failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, envelope{
				Success: false,
				Error:   "Authentication failed",
				Message: err.Error(),
			})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		ctx = context.WithValue(ctx, ctxKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate attempts the same resolution as Authenticate but
// swallows every failure: the request proceeds anonymously instead of
// being rejected. It never produces an error response itself.
func (s *Server) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.tokens.VerifySession(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		ctx = context.WithValue(ctx, ctxKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates an operation on the admin role flag. Must run
// after Authenticate.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.IsAdmin {
			writeAuthError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerified gates an operation on the email-verification flag.
// Must run after Authenticate.
func (s *Server) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.EmailVerified {
			writeAuthError(w, http.StatusForbidden, "Email verification required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware generates a unique request ID for each request.
// A client-supplied X-Request-ID is honored; otherwise one is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each request with method, path, status, and
// duration, and records the request counter.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.metrics.RecordRequest(r.URL.Path, strconv.Itoa(wrapped.status))
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	})
}

// recoveryMiddleware catches handler panics and returns a 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered in HTTP handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", r.Context().Value(ctxKeyRequestID),
				)
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// maxRequestBodySize caps incoming request bodies (64 KB). Auth
// payloads are small; anything larger is abuse.
const maxRequestBodySize = 64 << 10

func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

const requestIDBytes = 8

func generateRequestID() string {
	b := make([]byte, requestIDBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}
