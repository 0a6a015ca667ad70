// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token lifetimes.
const (
	SessionTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL   = time.Hour
)

// resetPurpose is the discriminator claim marking a token as a
// password-reset challenge. Its presence is what keeps session tokens
// and reset tokens from being used interchangeably.
const resetPurpose = "password_reset"

// insecureFallbackSecret is used when no signing secret is configured.
// It exists so local development works out of the box; running with it
// in production means anyone can mint valid tokens. The config layer
// logs loudly when this is in effect.
const insecureFallbackSecret = "skillforge-insecure-dev-secret"

// SessionClaims is the identity assertion carried by a bearer token.
type SessionClaims struct {
	UserID   ulid.ULID
	Email    string
	Username string
}

// sessionJWTClaims is the wire form of SessionClaims.
type sessionJWTClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// resetJWTClaims is the wire form of a reset challenge.
type resetJWTClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer and reset-challenge tokens with
// a process-wide HMAC secret. The secret is loaded once at startup and
// never rotated mid-process; token validity is purely a function of
// signature and expiry; nothing is persisted.
type TokenService struct {
	secret   []byte
	insecure bool
}

// NewTokenService creates a TokenService. An empty secret selects the
// documented insecure fallback so the service degrades rather than
// crashing; InsecureSecret reports when that happened.
func NewTokenService(secret string) *TokenService {
	if secret == "" {
		return &TokenService{secret: []byte(insecureFallbackSecret), insecure: true}
	}
	return &TokenService{secret: []byte(secret)}
}

// InsecureSecret reports whether the service is running on the fallback
// secret. Callers should refuse to start in production when this is true.
func (t *TokenService) InsecureSecret() bool {
	return t.insecure
}

// IssueSession signs a bearer token binding the user's id, email, and
// username for SessionTokenTTL.
func (t *TokenService) IssueSession(user *User) (string, error) {
	now := time.Now()
	claims := sessionJWTClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("kind", "session").Wrap(err)
	}
	return signed, nil
}

// IssueResetChallenge signs a single-purpose password-reset token for
// ResetTokenTTL. Single use is not cryptographically enforced: any
// holder can reset the password until expiry.
func (t *TokenService) IssueResetChallenge(userID ulid.ULID) (string, error) {
	now := time.Now()
	claims := resetJWTClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("kind", "reset").Wrap(err)
	}
	return signed, nil
}

// VerifySession checks signature and expiry of a bearer token and
// returns its claims. Failure kinds are distinguished because callers
// report them differently: ErrTokenExpired for a valid-but-stale token,
// ErrTokenInvalid for everything else.
func (t *TokenService) VerifySession(token string) (*SessionClaims, error) {
	var claims sessionJWTClaims
	if err := t.parse(token, &claims); err != nil {
		return nil, err
	}

	// A reset challenge signed with the same secret parses fine but
	// carries no identity fields; refuse to treat it as a session.
	if claims.Email == "" || claims.Username == "" {
		return nil, ErrTokenInvalid
	}

	userID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &SessionClaims{
		UserID:   userID,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

// VerifyResetChallenge checks a reset token and returns the user ID it
// was issued for. A valid session token presented here fails with
// ErrNotResetToken; the purpose claim will not match.
func (t *TokenService) VerifyResetChallenge(token string) (ulid.ULID, error) {
	var claims resetJWTClaims
	if err := t.parse(token, &claims); err != nil {
		return ulid.ULID{}, err
	}

	if claims.Purpose != resetPurpose {
		return ulid.ULID{}, ErrNotResetToken
	}

	userID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, ErrTokenInvalid
	}
	return userID, nil
}

// parse verifies signature and expiry into the given claims struct,
// collapsing library errors into the two domain sentinels.
func (t *TokenService) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
