// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

// Package postgres provides PostgreSQL implementations of the auth
// repository interfaces.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/skillforge/skillforge/internal/auth"
)

// querier is the subset of pgxpool.Pool the repository uses. Satisfied
// by both *pgxpool.Pool and pgxmock pools in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db querier
}

// NewUserRepository creates a UserRepository backed by the given pool.
func NewUserRepository(db querier) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, first_name, last_name, password_hash,
       is_admin, email_verified, profile_image, preferences, progress,
       achievements, last_login, created_at, updated_at`

// Create stores a new user. A unique-constraint collision on email or
// username surfaces as auth.ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	prefsJSON, progressJSON, achievementsJSON, err := marshalBundles(user)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "marshal bundles").
			Wrap(err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO users (
			id, email, username, first_name, last_name, password_hash,
			is_admin, email_verified, profile_image, preferences, progress,
			achievements, last_login, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		user.ID.String(),
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsAdmin,
		user.EmailVerified,
		user.ProfileImage,
		prefsJSON,
		progressJSON,
		achievementsJSON,
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return auth.ErrDuplicateUser
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive). The password
// hash is included for login verification.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// ExistsByEmailOrUsername reports whether any user holds the email or
// username, as a single combined check.
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($2)
		)
	`, email, username).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").
			With("operation", "existence check").
			Wrap(err)
	}
	return exists, nil
}

// UpdateLastLogin stamps the last-login timestamp.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id ulid.ULID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1
	`, id.String(), at)
	if err != nil {
		return oops.Code("USER_UPDATE_LAST_LOGIN_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// UpdatePassword overwrites only the password hash and updated-at.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id.String(), passwordHash, time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// Update persists mutable profile fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	prefsJSON, progressJSON, achievementsJSON, err := marshalBundles(user)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "marshal bundles").
			Wrap(err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			first_name = $2, last_name = $3, is_admin = $4,
			email_verified = $5, profile_image = $6, preferences = $7,
			progress = $8, achievements = $9, updated_at = $10
		WHERE id = $1
	`,
		user.ID.String(),
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.EmailVerified,
		user.ProfileImage,
		prefsJSON,
		progressJSON,
		achievementsJSON,
		time.Now(),
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func marshalBundles(user *auth.User) (prefs, progress, achievements []byte, err error) {
	if prefs, err = json.Marshal(user.Preferences); err != nil {
		return nil, nil, nil, err
	}
	if progress, err = json.Marshal(user.Progress); err != nil {
		return nil, nil, nil, err
	}
	if achievements, err = json.Marshal(user.Achievements); err != nil {
		return nil, nil, nil, err
	}
	return prefs, progress, achievements, nil
}

// scanUser scans one user row, decoding the JSONB bundles.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u                auth.User
		idStr            string
		prefsJSON        []byte
		progressJSON     []byte
		achievementsJSON []byte
	)

	err := row.Scan(
		&idStr,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.EmailVerified,
		&u.ProfileImage,
		&prefsJSON,
		&progressJSON,
		&achievementsJSON,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if err := json.Unmarshal(prefsJSON, &u.Preferences); err != nil {
		return nil, oops.Code("USER_CORRUPT_PREFERENCES").Wrap(err)
	}
	if err := json.Unmarshal(progressJSON, &u.Progress); err != nil {
		return nil, oops.Code("USER_CORRUPT_PROGRESS").Wrap(err)
	}
	if err := json.Unmarshal(achievementsJSON, &u.Achievements); err != nil {
		return nil, oops.Code("USER_CORRUPT_ACHIEVEMENTS").Wrap(err)
	}
	return &u, nil
}
