// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered author account.
//
// Users are created either through the signup form (username + password) or
// on first GitHub login. The core never mutates a user; it only references
// users as post/comment authors and as follow endpoints.
//
// WHY TWO IDENTIFIERS?
// ID is our internal primary key (xid, same scheme the store uses for groups).
// Username is the public, unique handle that appears in URLs such as
// /profile/{username}/. Keeping them separate means a URL-facing handle never
// becomes a foreign key.
//
// WHY GitHubID int64 (zero means "none")?
// Accounts created via the signup form have no GitHub identity. The store
// writes NULL for a zero GitHubID so the UNIQUE constraint only applies to
// real GitHub accounts.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, empty for GitHub-only accounts
	GitHubID     int64     `json:"githubId,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FullName returns "First Last", falling back to the username when the
// account has no names set.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
