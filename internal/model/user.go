package model

import "time"

// Roles a user can hold. Registration always assigns USER;
// ADMIN is granted out of band.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account. When the local identity provider is active the
// full record, plaintext password included, lives in the session store's user
// list; against a remote backend only the current-user snapshot is mirrored
// locally.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Password  string    `json:"password,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayName returns the name to show in bylines.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Ref returns the embeddable author reference for posts and comments.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username, Name: u.Name}
}

// UserRef is the author shape embedded in posts and comments.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// DisplayName returns the name to show in bylines.
func (r *UserRef) DisplayName() string {
	if r == nil {
		return "Unknown"
	}
	if r.Name != "" {
		return r.Name
	}
	return r.Username
}
