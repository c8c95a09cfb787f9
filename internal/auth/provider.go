// Package auth defines the identity-provider capability with two
// interchangeable variants: Remote, backed by the PostHub API, and Local, a
// fully offline simulator backed by the session store. The variant is chosen
// once at startup; no call site branches on the mode again.
package auth

import (
	"context"

	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/config"
	"github.com/posthub/posthub/internal/model"
	"github.com/posthub/posthub/internal/session"
)

// Registration carries the sign-up form fields.
type Registration struct {
	Username string
	Email    string
	Password string
	Name     string
}

// Session pairs an issued token with the user it represents.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Provider authenticates credentials and issues sessions. All operations are
// asynchronous by contract (the remote variant does real network round
// trips), hence the contexts, even though the local variant resolves
// immediately.
type Provider interface {
	// Register creates an account and establishes a session.
	Register(ctx context.Context, reg Registration) (*Session, error)
	// Login matches username or email (case-insensitive) plus password.
	Login(ctx context.Context, usernameOrEmail, password string) (*Session, error)
	// Logout destroys the session. The local user list survives.
	Logout(ctx context.Context) error
	// CurrentUser returns the logged-in user snapshot, or nil. Never fails.
	CurrentUser() *model.User
}

// NewProvider selects the identity provider for this run from config.
func NewProvider(cfg *config.Config, store *session.Store, client *api.Client) Provider {
	if cfg.Mode == config.ModeLocal {
		return NewLocal(store)
	}
	return NewRemote(client, store)
}
