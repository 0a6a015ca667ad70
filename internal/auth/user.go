// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
)

// usernameRegex matches alphanumeric usernames.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// User represents one SkillForge account.
type User struct {
	ID            ulid.ULID
	Email         string
	Username      string
	FirstName     string
	LastName      string
	PasswordHash  string // never serialized to clients
	IsAdmin       bool
	EmailVerified bool
	ProfileImage  string
	Preferences   Preferences
	Progress      Progress
	Achievements  []Achievement
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Preferences contains per-user learning settings.
type Preferences struct {
	Theme              string            `json:"theme"`
	Language           string            `json:"language"`
	PreferredLanguages []string          `json:"preferredProgrammingLanguages"`
	LearningStyle      string            `json:"learningStyle"`
	Difficulty         string            `json:"difficulty"`
	Notifications      NotificationPrefs `json:"notifications"`
}

// NotificationPrefs toggles outbound notification channels.
type NotificationPrefs struct {
	Email          bool `json:"email"`
	Push           bool `json:"push"`
	Achievements   bool `json:"achievements"`
	Reminders      bool `json:"reminders"`
	WeeklyProgress bool `json:"weeklyProgress"`
}

// Progress tracks a user's accumulated learning state.
type Progress struct {
	TotalXP             int                `json:"totalXP"`
	Level               int                `json:"level"`
	CurrentStreak       int                `json:"currentStreak"`
	LongestStreak       int                `json:"longestStreak"`
	CompletedChallenges int                `json:"completedChallenges"`
	CompletedProjects   int                `json:"completedProjects"`
	LanguageProgress    []LanguageProgress `json:"languageProgress"`
	SkillProgress       []SkillProgress    `json:"skillProgress"`
}

// LanguageProgress tracks XP earned in one programming language.
type LanguageProgress struct {
	Language string `json:"language"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
}

// SkillProgress tracks XP earned in one skill area.
type SkillProgress struct {
	Skill string `json:"skill"`
	XP    int    `json:"xp"`
	Level int    `json:"level"`
}

// Achievement is a badge earned by a user.
type Achievement struct {
	Name     string    `json:"name"`
	EarnedAt time.Time `json:"earnedAt"`
}

// DefaultPreferences returns the preference bundle for new accounts.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:              "system",
		Language:           "en",
		PreferredLanguages: []string{},
		LearningStyle:      "mixed",
		Difficulty:         "beginner",
		Notifications: NotificationPrefs{
			Email:          true,
			Push:           true,
			Achievements:   true,
			Reminders:      true,
			WeeklyProgress: true,
		},
	}
}

// DefaultProgress returns the zeroed progress bundle for new accounts.
// New users start at level 1 with no XP.
func DefaultProgress() Progress {
	return Progress{
		Level:            1,
		LanguageProgress: []LanguageProgress{},
		SkillProgress:    []SkillProgress{},
	}
}

// NewUser constructs a user with default preference and progress bundles.
// The password hash must already be computed by the caller.
func NewUser(email, username, firstName, lastName, passwordHash string) *User {
	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Preferences:  DefaultPreferences(),
		Progress:     DefaultProgress(),
		Achievements: []Achievement{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ValidUsername reports whether a username meets the account rules:
// MinUsernameLength to MaxUsernameLength characters, alphanumeric only.
func ValidUsername(username string) bool {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return false
	}
	return usernameRegex.MatchString(username)
}

// UserRepository manages user persistence. Implementations return
// ErrNotFound for missing users and ErrDuplicateUser for unique
// constraint collisions on email or username.
type UserRepository interface {
	// Create stores a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. The password hash is populated;
	// callers building outward-facing views must go through PublicView.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive), including
	// the password hash for login verification.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmailOrUsername reports whether any user holds the given
	// email or username. Single combined check so registration cannot
	// disclose which field conflicted.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// UpdateLastLogin stamps the last-login timestamp.
	UpdateLastLogin(ctx context.Context, id ulid.ULID, at time.Time) error

	// UpdatePassword overwrites only the password hash and updated-at.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// Update persists mutable profile fields of an existing user.
	Update(ctx context.Context, user *User) error
}
