// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package httpapi_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/internal/auth"
	"github.com/skillforge/skillforge/internal/auth/mocks"
	"github.com/skillforge/skillforge/internal/httpapi"
)

type middlewareEnv struct {
	users  *mocks.MockUserRepository
	tokens *auth.TokenService
	srv    *httpapi.Server
}

func newMiddlewareEnv(t *testing.T) *middlewareEnv {
	t.Helper()

	users := mocks.NewMockUserRepository(t)
	notifier := mocks.NewMockResetNotifier(t)
	tokens := auth.NewTokenService(testSecret)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := auth.NewService(users, auth.NewArgon2idHasher(), tokens, notifier, logger, "https://skillforge.test/reset-password")
	require.NoError(t, err)

	srv, err := httpapi.NewServer(httpapi.Config{
		Addr:    "127.0.0.1:0",
		Service: svc,
		Users:   users,
		Tokens:  tokens,
		Logger:  logger,
	})
	require.NoError(t, err)

	return &middlewareEnv{users: users, tokens: tokens, srv: srv}
}

// okHandler marks that the middleware let the request through.
func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// expiredSessionToken crafts a structurally valid session token whose
// expiry is already in the past.
func expiredSessionToken(t *testing.T, user *auth.User) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"email":    user.Email,
		"username": user.Username,
		"iat":      time.Now().Add(-2 * time.Hour).Unix(),
		"exp":      time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticate_NoToken(t *testing.T) {
	env := newMiddlewareEnv(t)
	var called bool

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	env.srv.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "No authentication token provided", body["error"])
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	env := newMiddlewareEnv(t)
	var called bool

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	env.srv.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "No authentication token provided", body["error"])
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")
	var called bool

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expiredSessionToken(t, user))
	rec := httptest.NewRecorder()
	env.srv.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Token expired", body["error"])
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	env := newMiddlewareEnv(t)
	var called bool

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage.token.value")
	rec := httptest.NewRecorder()
	env.srv.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestAuthenticate_ResetTokenRejected(t *testing.T) {
	// A reset challenge signed with the same secret must not pass as a
	// session token.
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")
	var called bool

	resetToken, err := env.tokens.IssueResetChallenge(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+resetToken)
	rec := httptest.NewRecorder()
	env.srv.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")
	var called bool

	token, err := env.tokens.IssueSession(user)
	require.NoError(t, err)
	env.users.On("GetByID", mock.Anything, user.ID).
		Return(nil, auth.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.srv.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "User not found", body["error"])
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")
	var called bool

	token, err := env.tokens.IssueSession(user)
	require.NoError(t, err)
	env.users.On("GetByID", mock.Anything, user.ID).
		Return(nil, errors.New("connection refused")).Once()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.srv.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Authentication failed", body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")

	token, err := env.tokens.IssueSession(user)
	require.NoError(t, err)
	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	var gotUser *auth.User
	var gotToken string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = httpapi.UserFromContext(r.Context())
		gotToken, _ = httpapi.TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.srv.Authenticate(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUser)
	assert.Equal(t, user.ID, gotUser.ID)
	assert.Equal(t, token, gotToken)
}

func TestOptionalAuthenticate_SwallowsFailures(t *testing.T) {
	env := newMiddlewareEnv(t)

	cases := []struct {
		name   string
		header string
	}{
		{name: "no token", header: ""},
		{name: "garbage token", header: "Bearer garbage"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			env.srv.OptionalAuthenticate(okHandler(&called)).ServeHTTP(rec, req)

			assert.True(t, called)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestOptionalAuthenticate_AttachesWhenValid(t *testing.T) {
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")

	token, err := env.tokens.IssueSession(user)
	require.NoError(t, err)
	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	var gotUser *auth.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = httpapi.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.srv.OptionalAuthenticate(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUser)
	assert.Equal(t, user.ID, gotUser.ID)
}

func TestRequireAdmin(t *testing.T) {
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")

	t.Run("no identity", func(t *testing.T) {
		var called bool
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		env.srv.RequireAdmin(okHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "Authentication required", body["error"])
	})

	t.Run("not admin", func(t *testing.T) {
		var called bool
		user.IsAdmin = false
		rec := authedRequest(t, env, user, env.srv.RequireAdmin(okHandler(&called)))

		assert.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "Admin access required", body["error"])
	})

	t.Run("admin", func(t *testing.T) {
		var called bool
		user.IsAdmin = true
		rec := authedRequest(t, env, user, env.srv.RequireAdmin(okHandler(&called)))

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireVerified(t *testing.T) {
	env := newMiddlewareEnv(t)
	user := registeredUser(t, "secret123")

	t.Run("unverified", func(t *testing.T) {
		var called bool
		user.EmailVerified = false
		rec := authedRequest(t, env, user, env.srv.RequireVerified(okHandler(&called)))

		assert.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "Email verification required", body["error"])
	})

	t.Run("verified", func(t *testing.T) {
		var called bool
		user.EmailVerified = true
		rec := authedRequest(t, env, user, env.srv.RequireVerified(okHandler(&called)))

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

// authedRequest runs the handler behind Authenticate with a valid
// session for the given user.
func authedRequest(t *testing.T, env *middlewareEnv, user *auth.User, next http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	token, err := env.tokens.IssueSession(user)
	require.NoError(t, err)
	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.srv.Authenticate(next).ServeHTTP(rec, req)
	return rec
}

func TestRequestID_Generated(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_Honored(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied-id", rec.Header().Get("X-Request-ID"))
}
