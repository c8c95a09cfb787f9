package auth

import (
	"context"

	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/model"
	"github.com/posthub/posthub/internal/session"
)

// Remote is the identity provider backed by the PostHub API. The server
// issues tokens; this variant only persists them.
type Remote struct {
	client *api.Client
	store  *session.Store
}

// NewRemote creates the remote identity provider.
func NewRemote(client *api.Client, store *session.Store) *Remote {
	return &Remote{client: client, store: store}
}

// Register implements Provider.
func (r *Remote) Register(ctx context.Context, reg Registration) (*Session, error) {
	resp, err := r.client.Register(ctx, reg.Username, reg.Email, reg.Password, reg.Name)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetSession(resp.Token, &resp.User); err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, User: resp.User}, nil
}

// Login implements Provider.
func (r *Remote) Login(ctx context.Context, usernameOrEmail, password string) (*Session, error) {
	resp, err := r.client.Login(ctx, usernameOrEmail, password)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetSession(resp.Token, &resp.User); err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, User: resp.User}, nil
}

// Logout implements Provider. The session is local state; the server simply
// stops seeing the token.
func (r *Remote) Logout(ctx context.Context) error {
	return r.store.ClearSession()
}

// CurrentUser implements Provider.
func (r *Remote) CurrentUser() *model.User {
	return r.store.CurrentUser()
}
