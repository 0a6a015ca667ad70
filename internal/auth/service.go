// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when a login targets an unknown
// email, so response time does not reveal whether the account exists.
// This is NOT a real credential - it's a fake hash that will never match
// any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates the account lifecycle: register, login, token
// refresh, password reset, and current-identity lookup. Each operation
// is a single atomic business transaction against the store; nothing is
// retried and no state is held across calls.
type Service struct {
	users         UserRepository
	hasher        PasswordHasher
	tokens        *TokenService
	notifier      ResetNotifier
	logger        *slog.Logger
	resetLinkBase string
}

// NewService creates a Service. All dependencies are required.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenService, notifier ResetNotifier, logger *slog.Logger, resetLinkBase string) (*Service, error) {
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	if notifier == nil {
		return nil, errors.New("reset notifier is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		logger:        logger,
		resetLinkBase: resetLinkBase,
	}, nil
}

// RegisterParams carries the validated registration input.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
}

// Register creates a new account with default preference and progress
// bundles and issues a session token. Returns ErrDuplicateUser when the
// email or username is taken; a single combined check, so the caller
// cannot learn which field conflicted.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, string, error) {
	exists, err := s.users.ExistsByEmailOrUsername(ctx, p.Email, p.Username)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "existence check").
			Wrap(err)
	}
	if exists {
		return nil, "", ErrDuplicateUser
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := NewUser(p.Email, p.Username, p.FirstName, p.LastName, hash)
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the existence check;
		// the unique constraint reports it as a duplicate.
		if errors.Is(err, ErrDuplicateUser) {
			return nil, "", ErrDuplicateUser
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	s.logger.Info("user registered", "user_id", user.ID.String(), "username", user.Username)
	return user, token, nil
}

// Login verifies credentials and issues a session token. Unknown email
// and wrong password both return ErrInvalidCredentials; a dummy hash is
// verified in the unknown-email case to keep response time uniform.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// fall through with the dummy hash
	default:
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, "", ErrInvalidCredentials
	}

	// Rehash on login when the stored digest uses a legacy scheme.
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			user.PasswordHash = newHash
			//nolint:errcheck // Best effort, login succeeds regardless
			_ = s.users.UpdatePassword(ctx, user.ID, newHash)
		}
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "stamp last login").
			Wrap(err)
	}

	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	s.logger.Info("user logged in", "user_id", user.ID.String())
	return user, token, nil
}

// RefreshToken issues a fresh session token for an already-authenticated
// user. The password is not re-checked. Returns ErrNotFound if the
// account no longer exists.
func (s *Service) RefreshToken(ctx context.Context, userID ulid.ULID) (*User, string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}
	return user, token, nil
}

// Logout is stateless: tokens are not revocable, so there is nothing to
// invalidate server-side. The client discards its token. A leaked token
// therefore remains valid until natural expiry.
func (s *Service) Logout(context.Context) error {
	return nil
}

// ForgotPassword starts the reset flow. If the email is unknown the call
// still succeeds with an empty token so responses cannot be used to
// enumerate accounts. When a token is issued, delivery to the notifier
// is fire-and-forget; it neither blocks nor gates the success response.
// The raw token is returned for non-production diagnostics only.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("AUTH_FORGOT_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, err := s.tokens.IssueResetChallenge(user.ID)
	if err != nil {
		return "", oops.Code("AUTH_FORGOT_FAILED").
			With("operation", "issue reset challenge").
			Wrap(err)
	}

	link := s.resetLinkBase + "?token=" + token
	sendCtx := context.WithoutCancel(ctx)
	go func() {
		if sendErr := s.notifier.SendPasswordReset(sendCtx, email, link); sendErr != nil {
			s.logger.Error("password reset delivery failed", "error", sendErr)
		}
	}()

	return token, nil
}

// ResetPassword completes the reset flow: verifies the challenge token,
// rejects non-reset tokens, and overwrites the account's password hash.
// No session token is issued; the caller must log in again.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.VerifyResetChallenge(token)
	if err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	s.logger.Info("password reset", "user_id", userID.String())
	return nil
}

// GetCurrentUser returns the full account record for a verified token's
// user ID. Returns ErrNotFound if the account no longer exists.
func (s *Service) GetCurrentUser(ctx context.Context, userID ulid.ULID) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("AUTH_GET_USER_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}
	return user, nil
}
