// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package auth

import "time"

// View is the outward-facing representation of a user. The password hash
// is structurally absent; there is no way to leak it through a View.
// Optional fields are populated per operation: login and refresh include
// achievements, login and me include the last-login timestamp, and me
// includes the full record.
type View struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	Username     string        `json:"username"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	ProfileImage string        `json:"profileImage,omitempty"`
	Preferences  Preferences   `json:"preferences"`
	Progress     Progress      `json:"progress"`
	Achievements []Achievement `json:"achievements,omitempty"`
	LastLogin    *time.Time    `json:"lastLogin,omitempty"`
	CreatedAt    *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
}

// PublicView returns the minimal representation used by registration.
func (u *User) PublicView() View {
	return View{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Preferences: u.Preferences,
		Progress:    u.Progress,
	}
}

// SessionView extends PublicView with achievements and last login,
// used by login responses.
func (u *User) SessionView() View {
	v := u.PublicView()
	v.Achievements = u.Achievements
	v.LastLogin = u.LastLogin
	return v
}

// RefreshView extends PublicView with achievements, used by token
// refresh responses.
func (u *User) RefreshView() View {
	v := u.PublicView()
	v.Achievements = u.Achievements
	return v
}

// FullView returns the complete public record, used by the
// current-identity endpoint.
func (u *User) FullView() View {
	v := u.SessionView()
	v.ProfileImage = u.ProfileImage
	created := u.CreatedAt
	updated := u.UpdatedAt
	v.CreatedAt = &created
	v.UpdatedAt = &updated
	return v
}
